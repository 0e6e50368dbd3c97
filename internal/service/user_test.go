package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/uuid"

	"peerlearn.app/server/internal/model"
	"peerlearn.app/server/internal/service"
	"peerlearn.app/server/internal/store"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

var _ = Describe("UserService", func() {
	var (
		svc         service.UserService
		mockStore   *mockUserStore
		workspaces  *mockWorkspaceStore
		memberships *mockMembershipStore
		avatars     *mockStorage
		ctx         context.Context
		alice       *model.User
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockStore = &mockUserStore{}
		workspaces = &mockWorkspaceStore{}
		memberships = &mockMembershipStore{}
		avatars = &mockStorage{}
		alice = &model.User{ID: 1, Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Liddell"}
		mockStore.getByIDFn = func(_ context.Context, id int64) (*model.User, error) {
			if id == alice.ID {
				u := *alice
				return &u, nil
			}
			return nil, store.ErrNotFound
		}
		tx := txOver(&mockStoreProvider{users: mockStore, workspaces: workspaces, memberships: memberships})
		svc = service.NewUserService(mockStore, tx, avatars)
	})

	Describe("GetByID", func() {
		It("returns the user", func() {
			user, err := svc.GetByID(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Username).To(Equal("alice"))
		})

		It("fails with USER_002 when absent", func() {
			_, err := svc.GetByID(ctx, 99)
			Expect(err).To(MatchError(service.ErrUserNotFound))
			Expect(service.AsError(err).Code).To(Equal("USER_002"))
		})

		It("wraps store failures", func() {
			mockStore.getByIDFn = func(_ context.Context, _ int64) (*model.User, error) {
				return nil, errors.New("connection reset")
			}
			_, err := svc.GetByID(ctx, 1)
			Expect(err).To(MatchError(ContainSubstring("connection reset")))
			Expect(service.AsError(err).Kind).To(Equal(service.KindInternal))
		})
	})

	Describe("Search", func() {
		It("returns an empty list for a blank query without touching the store", func() {
			for _, q := range []string{"", "   ", "\t\n"} {
				users, err := svc.Search(ctx, q, 10)
				Expect(err).NotTo(HaveOccurred())
				Expect(users).To(BeEmpty())
				Expect(users).NotTo(BeNil())
			}
			Expect(mockStore.searchCalls).To(BeZero())
		})

		DescribeTable("clamps the limit to [1, 25]",
			func(requested, expected int) {
				var got int
				mockStore.searchFn = func(_ context.Context, _ string, limit int) ([]model.User, error) {
					got = limit
					return []model.User{}, nil
				}
				_, err := svc.Search(ctx, "ali", requested)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(expected))
			},
			Entry("above the cap", 100, 25),
			Entry("at the cap", 25, 25),
			Entry("within range", 8, 8),
			Entry("zero", 0, 1),
			Entry("negative", -3, 1),
		)

		It("passes a trimmed query", func() {
			mockStore.searchFn = func(_ context.Context, query string, _ int) ([]model.User, error) {
				Expect(query).To(Equal("ali"))
				return []model.User{*alice}, nil
			}
			users, err := svc.Search(ctx, "  ali ", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(users).To(HaveLen(1))
		})
	})

	Describe("Update", func() {
		It("applies only the allow-listed fields", func() {
			var saved *model.User
			mockStore.updateFn = func(_ context.Context, u *model.User) error {
				saved = u
				return nil
			}

			user, err := svc.Update(ctx, 1, model.UserPatch{FirstName: strPtr("  Al ")})
			Expect(err).NotTo(HaveOccurred())
			Expect(user.FirstName).To(Equal("Al"))
			Expect(user.LastName).To(Equal("Liddell"))
			Expect(saved.Email).To(Equal("alice@example.com"))
		})

		It("is a no-op for an empty patch", func() {
			user, err := svc.Update(ctx, 1, model.UserPatch{})
			Expect(err).NotTo(HaveOccurred())
			Expect(user).To(Equal(alice))
			Expect(mockStore.updateCalls).To(BeZero())
		})

		It("rejects an invalid username before loading the user", func() {
			mockStore.getByIDFn = func(_ context.Context, _ int64) (*model.User, error) {
				Fail("store should not be called")
				return nil, nil
			}
			_, err := svc.Update(ctx, 1, model.UserPatch{Username: strPtr("a b")})
			Expect(err).To(MatchError(service.ErrInvalidUser))
		})

		It("fails with USER_003 when the username is taken", func() {
			mockStore.getByUsernameFn = func(_ context.Context, username string) (*model.User, error) {
				return &model.User{ID: 2, Username: username}, nil
			}
			_, err := svc.Update(ctx, 1, model.UserPatch{Username: strPtr("bob")})
			Expect(err).To(MatchError(service.ErrUsernameExists))
		})

		It("maps a racing unique violation to USER_003", func() {
			mockStore.updateFn = func(_ context.Context, _ *model.User) error {
				return store.ErrDuplicateUsername
			}
			_, err := svc.Update(ctx, 1, model.UserPatch{Username: strPtr("bob")})
			Expect(err).To(MatchError(service.ErrUsernameExists))
		})

		It("fails with USER_002 when absent", func() {
			_, err := svc.Update(ctx, 42, model.UserPatch{LastName: strPtr("X")})
			Expect(err).To(MatchError(service.ErrUserNotFound))
		})
	})

	Describe("Delete", func() {
		It("deletes the user and its avatar", func() {
			alice.ProfilePicture = strPtr("avatars/ab/old.png")
			Expect(svc.Delete(ctx, 1)).To(Succeed())
			Expect(avatars.deleted).To(ConsistOf("avatars/ab/old.png"))
		})

		It("fails with USER_002 when absent", func() {
			Expect(svc.Delete(ctx, 42)).To(MatchError(service.ErrUserNotFound))
		})

		It("fails with USER_008 when no row was removed", func() {
			mockStore.deleteFn = func(_ context.Context, _ int64) (int64, error) {
				return 0, nil
			}
			err := svc.Delete(ctx, 1)
			Expect(err).To(MatchError(service.ErrUserDeleteFailed))
			Expect(service.AsError(err).Kind).To(Equal(service.KindInternal))
		})

		It("keeps the avatar when the account is not removed", func() {
			alice.ProfilePicture = strPtr("avatars/ab/old.png")
			mockStore.deleteFn = func(_ context.Context, _ int64) (int64, error) {
				return 0, errors.New("connection reset")
			}
			Expect(svc.Delete(ctx, 1)).To(HaveOccurred())
			Expect(avatars.deleted).To(BeEmpty())
		})

		Context("when the user owns workspaces", func() {
			var members map[int64][]model.Membership

			BeforeEach(func() {
				members = map[int64][]model.Membership{}
				workspaces.listOwnedIDsFn = func(_ context.Context, userID int64) ([]int64, error) {
					Expect(userID).To(Equal(alice.ID))
					ids := []int64{}
					for id := range members {
						ids = append(ids, id)
					}
					sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
					return ids, nil
				}
				workspaces.getByIDForUpdateFn = func(_ context.Context, id int64) (*model.Workspace, error) {
					return &model.Workspace{ID: id, Name: "Team", Members: members[id]}, nil
				}
			})

			It("hands a sole-owned workspace to its longest-standing member", func() {
				members[100] = []model.Membership{
					{UserID: alice.ID, WorkspaceID: 100, Role: model.RoleOwner},
					{UserID: 20, WorkspaceID: 100, Role: model.RoleMember},
					{UserID: 30, WorkspaceID: 100, Role: model.RoleMember},
				}

				Expect(svc.Delete(ctx, alice.ID)).To(Succeed())
				Expect(memberships.promoted).To(ConsistOf(
					model.Membership{UserID: 20, WorkspaceID: 100, Role: model.RoleOwner},
				))
				Expect(workspaces.deleteCalls).To(BeZero())
			})

			It("leaves a workspace with another owner untouched", func() {
				members[100] = []model.Membership{
					{UserID: 20, WorkspaceID: 100, Role: model.RoleOwner},
					{UserID: alice.ID, WorkspaceID: 100, Role: model.RoleOwner},
				}

				Expect(svc.Delete(ctx, alice.ID)).To(Succeed())
				Expect(memberships.promoted).To(BeEmpty())
				Expect(workspaces.deleteCalls).To(BeZero())
			})

			It("deletes a workspace the user is alone in", func() {
				members[100] = []model.Membership{{UserID: alice.ID, WorkspaceID: 100, Role: model.RoleOwner}}
				var deleted []int64
				workspaces.deleteFn = func(_ context.Context, id int64) (bool, error) {
					deleted = append(deleted, id)
					return true, nil
				}

				Expect(svc.Delete(ctx, alice.ID)).To(Succeed())
				Expect(deleted).To(Equal([]int64{100}))
			})

			It("locks every owned workspace in id order", func() {
				members[101] = []model.Membership{{UserID: alice.ID, WorkspaceID: 101, Role: model.RoleOwner}}
				members[100] = []model.Membership{{UserID: alice.ID, WorkspaceID: 100, Role: model.RoleOwner}}
				var locked []int64
				workspaces.getByIDForUpdateFn = func(_ context.Context, id int64) (*model.Workspace, error) {
					locked = append(locked, id)
					return &model.Workspace{ID: id, Members: members[id]}, nil
				}

				Expect(svc.Delete(ctx, alice.ID)).To(Succeed())
				Expect(locked).To(Equal([]int64{100, 101}))
			})

			It("does not delete the account when the handover fails", func() {
				members[100] = []model.Membership{{UserID: alice.ID, WorkspaceID: 100, Role: model.RoleOwner}}
				workspaces.deleteFn = func(_ context.Context, _ int64) (bool, error) {
					return false, errors.New("connection reset")
				}
				userDeletes := 0
				mockStore.deleteFn = func(_ context.Context, _ int64) (int64, error) {
					userDeletes++
					return 1, nil
				}

				err := svc.Delete(ctx, alice.ID)
				Expect(service.AsError(err)).To(Equal(service.ErrInternal))
				Expect(userDeletes).To(BeZero())
			})
		})
	})

	Describe("UpdateAvatar", func() {
		It("stores a sniffed PNG and removes the previous image", func() {
			alice.ProfilePicture = strPtr("avatars/old.png")
			var storedType string
			avatars.uploadFn = func(_ context.Context, fileID uuid.UUID, filename, contentType string, data io.Reader) (string, error) {
				storedType = contentType
				Expect(filename).To(Equal("avatar.png"))
				body, err := io.ReadAll(data)
				Expect(err).NotTo(HaveOccurred())
				Expect(bytes.HasPrefix(body, pngHeader)).To(BeTrue())
				return "avatars/new.png", nil
			}
			var savedKey *string
			mockStore.setProfilePicFn = func(_ context.Context, _ int64, key *string) error {
				savedKey = key
				return nil
			}

			user, err := svc.UpdateAvatar(ctx, 1, service.AvatarUpload{
				Filename: "me.bin",
				Size:     int64(len(pngHeader)),
				Data:     bytes.NewReader(pngHeader),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(storedType).To(Equal("image/png"))
			Expect(*savedKey).To(Equal("avatars/new.png"))
			Expect(*user.ProfilePicture).To(Equal("avatars/new.png"))
			Expect(avatars.deleted).To(ConsistOf("avatars/old.png"))
		})

		It("rejects non-image content", func() {
			_, err := svc.UpdateAvatar(ctx, 1, service.AvatarUpload{
				Filename: "avatar.png",
				Size:     11,
				Data:     strings.NewReader("hello world"),
			})
			Expect(err).To(MatchError(service.ErrInvalidAvatar))
		})

		It("rejects oversized uploads up front", func() {
			_, err := svc.UpdateAvatar(ctx, 1, service.AvatarUpload{
				Size: service.MaxAvatarBytes + 1,
				Data: bytes.NewReader(pngHeader),
			})
			Expect(err).To(MatchError(service.ErrInvalidAvatar))
		})

		It("rejects a stream that grows past the limit and cleans up", func() {
			big := io.MultiReader(bytes.NewReader(pngHeader), io.LimitReader(zeroReader{}, service.MaxAvatarBytes))
			avatars.uploadFn = func(_ context.Context, _ uuid.UUID, _, _ string, data io.Reader) (string, error) {
				_, _ = io.Copy(io.Discard, data)
				return "avatars/big.png", nil
			}
			_, err := svc.UpdateAvatar(ctx, 1, service.AvatarUpload{Size: 10, Data: big})
			Expect(err).To(MatchError(service.ErrInvalidAvatar))
			Expect(avatars.deleted).To(ConsistOf("avatars/big.png"))
		})
	})

	Describe("OpenAvatar", func() {
		It("fails when the user has no avatar", func() {
			_, _, err := svc.OpenAvatar(ctx, 1)
			Expect(err).To(MatchError(service.ErrUserNotFound))
		})

		It("returns the stored image with its content type", func() {
			alice.ProfilePicture = strPtr("avatars/ab/x.webp")
			rc, contentType, err := svc.OpenAvatar(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			defer rc.Close()
			Expect(contentType).To(Equal("image/webp"))
		})
	})
})

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
