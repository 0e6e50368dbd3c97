package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/http/handler"
	"peerlearn.app/server/internal/http/middleware"
	"peerlearn.app/server/internal/model"
	"peerlearn.app/server/internal/service"
)

var _ = Describe("UserHandler", func() {
	var (
		router *gin.Engine
		users  *mockUserService
	)

	BeforeEach(func() {
		router = newEngine()
		users = &mockUserService{}
		h := handler.NewUserHandler(users, dto.AvatarLinks{})
		g := router.Group("/api/user")
		g.GET("/:id/avatar", h.Avatar)
		authed := g.Group("", middleware.RequireAuth(authAs(), testCookie))
		authed.GET("/search", h.Search)
		authed.GET("/me", h.Me)
		authed.PUT("/update", h.Update)
		authed.PUT("/avatar", h.UploadAvatar)
		authed.DELETE("/delete", h.Delete)
	})

	Describe("authentication", func() {
		It("returns 401 without a session", func() {
			w, env := do(router, http.MethodGet, "/api/user/me", nil, false)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(env.Code).To(Equal("AUTH_001"))
		})

		It("accepts a bearer token", func() {
			users.getByIDFn = func(_ context.Context, id int64) (*model.User, error) {
				return &model.User{ID: id, Username: "ada"}, nil
			}
			req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
			req.Header.Set("Authorization", "Bearer "+testToken)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("rejects an invalid token", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
			req.AddCookie(&http.Cookie{Name: testCookie, Value: "forged"})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})
	})

	It("returns the caller's profile with string ids", func() {
		users.getByIDFn = func(_ context.Context, id int64) (*model.User, error) {
			Expect(id).To(Equal(testUserID))
			return &model.User{ID: id, Username: "ada", Email: "ada@example.com", PasswordHash: "secret-hash"}, nil
		}

		w, env := do(router, http.MethodGet, "/api/user/me", nil, true)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(ContainSubstring(`"id":"42"`))
		Expect(string(env.Data)).NotTo(ContainSubstring("secret-hash"))
	})

	Describe("Search", func() {
		It("defaults the limit to 8", func() {
			users.searchFn = func(_ context.Context, query string, limit int) ([]model.User, error) {
				Expect(query).To(Equal("ad"))
				Expect(limit).To(Equal(8))
				return []model.User{{ID: 1, Username: "ada", Email: "ada@example.com"}}, nil
			}

			w, env := do(router, http.MethodGet, "/api/user/search?query=ad", nil, true)

			Expect(w.Code).To(Equal(http.StatusOK))
			var briefs []map[string]any
			Expect(json.Unmarshal(env.Data, &briefs)).To(Succeed())
			Expect(briefs).To(HaveLen(1))
			Expect(briefs[0]).NotTo(HaveKey("email"))
		})

		It("passes an explicit limit through", func() {
			users.searchFn = func(_ context.Context, _ string, limit int) ([]model.User, error) {
				Expect(limit).To(Equal(100))
				return []model.User{}, nil
			}
			w, _ := do(router, http.MethodGet, "/api/user/search?query=ad&limit=100", nil, true)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("rejects a non-numeric limit", func() {
			w, env := do(router, http.MethodGet, "/api/user/search?query=ad&limit=lots", nil, true)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Code).To(Equal("VALIDATION_001"))
		})
	})

	Describe("Update", func() {
		It("forwards only the allow-listed fields", func() {
			users.updateFn = func(_ context.Context, id int64, patch model.UserPatch) (*model.User, error) {
				Expect(patch.Username).To(BeNil())
				Expect(*patch.FirstName).To(Equal("Ada"))
				return &model.User{ID: id, FirstName: "Ada"}, nil
			}

			w, _ := do(router, http.MethodPut, "/api/user/update", map[string]string{"firstName": "Ada"}, true)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("rejects fields outside the allow-list", func() {
			users.updateFn = func(context.Context, int64, model.UserPatch) (*model.User, error) {
				Fail("service must not be called")
				return nil, nil
			}

			w, env := do(router, http.MethodPut, "/api/user/update", map[string]any{"experience": 9000}, true)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Code).To(Equal("VALIDATION_001"))
		})

		It("maps a username collision to 409", func() {
			users.updateFn = func(context.Context, int64, model.UserPatch) (*model.User, error) {
				return nil, service.ErrUsernameExists
			}
			w, env := do(router, http.MethodPut, "/api/user/update", map[string]string{"username": "taken"}, true)
			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(env.Code).To(Equal("USER_003"))
		})
	})

	Describe("Delete", func() {
		It("maps a failed delete to 500 with its code", func() {
			users.deleteFn = func(context.Context, int64) error { return service.ErrUserDeleteFailed }
			w, env := do(router, http.MethodDelete, "/api/user/delete", nil, true)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(env.Code).To(Equal("USER_008"))
		})

		It("hides infrastructure errors", func() {
			users.deleteFn = func(context.Context, int64) error { return errors.New("pq: connection reset") }
			w, env := do(router, http.MethodDelete, "/api/user/delete", nil, true)
			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(env.Code).To(Equal("INTERNAL_001"))
			Expect(env.Message).NotTo(ContainSubstring("pq"))
		})
	})

	Describe("avatars", func() {
		upload := func(field string, content []byte) *httptest.ResponseRecorder {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, err := mw.CreateFormFile(field, "me.png")
			Expect(err).NotTo(HaveOccurred())
			_, _ = part.Write(content)
			Expect(mw.Close()).To(Succeed())

			req := httptest.NewRequest(http.MethodPut, "/api/user/avatar", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			req.AddCookie(&http.Cookie{Name: testCookie, Value: testToken})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			return w
		}

		It("hands the uploaded file to the service and links the result", func() {
			users.updateAvatarFn = func(_ context.Context, id int64, up service.AvatarUpload) (*model.User, error) {
				data, err := io.ReadAll(up.Data)
				Expect(err).NotTo(HaveOccurred())
				Expect(data).To(Equal([]byte("png-bytes")))
				Expect(up.Size).To(Equal(int64(9)))
				key := "avatars/ab/key.png"
				return &model.User{ID: id, ProfilePicture: &key}, nil
			}

			w := upload("image", []byte("png-bytes"))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(ContainSubstring(`"profilePicture":"/api/user/42/avatar"`))
		})

		It("requires the image field", func() {
			w := upload("file", []byte("png-bytes"))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(ContainSubstring("USER_005"))
		})

		It("streams a stored avatar without authentication", func() {
			users.openAvatarFn = func(_ context.Context, id int64) (io.ReadCloser, string, error) {
				Expect(id).To(Equal(int64(7)))
				return io.NopCloser(strings.NewReader("gif-bytes")), "image/gif", nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/user/7/avatar", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("image/gif"))
			Expect(w.Body.String()).To(Equal("gif-bytes"))
		})

		It("returns 404 when the user has no avatar", func() {
			w, env := do(router, http.MethodGet, "/api/user/7/avatar", nil, false)
			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(env.Code).To(Equal("USER_002"))
		})

		It("rejects a non-numeric id", func() {
			w, _ := do(router, http.MethodGet, "/api/user/abc/avatar", nil, false)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("AvatarLinks", func() {
	key := "avatars/ab/key.png"
	user := &model.User{ID: 5, ProfilePicture: &key}

	It("prefers the public storage URL", func() {
		link := dto.AvatarLinks{PublicURL: "https://cdn.example.com/"}.For(user)
		Expect(*link).To(Equal("https://cdn.example.com/avatars/ab/key.png"))
	})

	It("falls back to the API route", func() {
		Expect(*dto.AvatarLinks{}.For(user)).To(Equal("/api/user/5/avatar"))
	})

	It("is nil without an avatar", func() {
		Expect(dto.AvatarLinks{}.For(&model.User{ID: 5})).To(BeNil())
	})
})
