package storage_test

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"peerlearn.app/server/core/config"
	"peerlearn.app/server/internal/storage"
)

var _ = Describe("LocalStorage", func() {
	var (
		ctx   context.Context
		store storage.Storage
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = storage.New(ctx, config.StorageConfig{Type: "local", LocalPath: GinkgoT().TempDir()})
		Expect(err).NotTo(HaveOccurred())
	})

	It("round-trips an object under a sharded avatar path", func() {
		id := uuid.MustParse("ab3f6e0c-7d9a-4c1e-9b8d-0f1e2d3c4b5a")

		key, err := store.Upload(ctx, id, "Me.PNG", "image/png", strings.NewReader("pixels"))
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("avatars/ab/ab3f6e0c-7d9a-4c1e-9b8d-0f1e2d3c4b5a.png"))

		rc, err := store.Open(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		defer rc.Close()
		data, err := io.ReadAll(rc)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("pixels"))
	})

	It("reports missing objects with ErrNotFound", func() {
		_, err := store.Open(ctx, "avatars/00/missing.png")
		Expect(err).To(MatchError(storage.ErrNotFound))
	})

	It("deletes idempotently", func() {
		key, err := store.Upload(ctx, uuid.New(), "a.gif", "image/gif", strings.NewReader("gif"))
		Expect(err).NotTo(HaveOccurred())

		Expect(store.Delete(ctx, key)).To(Succeed())
		Expect(store.Delete(ctx, key)).To(Succeed())
		_, err = store.Open(ctx, key)
		Expect(err).To(MatchError(storage.ErrNotFound))
	})

	It("refuses paths outside its directory", func() {
		_, err := store.Open(ctx, "../../etc/passwd")
		Expect(err).To(MatchError(ContainSubstring("invalid storage path")))
		Expect(store.Delete(ctx, "../outside.png")).NotTo(Succeed())
	})

	It("rejects unknown storage types", func() {
		_, err := storage.New(ctx, config.StorageConfig{Type: "ftp"})
		Expect(err).To(HaveOccurred())
	})
})

var _ = DescribeTable("content types",
	func(contentType, ext string) {
		Expect(storage.ExtensionFor(contentType)).To(Equal(ext))
		Expect(storage.ContentTypeFor("avatars/ab/x" + ext)).To(Equal(contentType))
	},
	Entry("png", "image/png", ".png"),
	Entry("jpeg", "image/jpeg", ".jpg"),
	Entry("webp", "image/webp", ".webp"),
	Entry("gif", "image/gif", ".gif"),
)
