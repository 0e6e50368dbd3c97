package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"peerlearn.app/server/internal/http/dto"
	"peerlearn.app/server/internal/http/handler"
	"peerlearn.app/server/internal/model"
	"peerlearn.app/server/internal/service"
)

var _ = Describe("AuthHandler", func() {
	var (
		router *gin.Engine
		auth   *mockAuthService
	)

	BeforeEach(func() {
		router = newEngine()
		auth = &mockAuthService{}
		h := handler.NewAuthHandler(auth, handler.CookieConfig{Name: testCookie}, dto.AvatarLinks{})
		router.POST("/api/auth/register", h.Register)
		router.POST("/api/auth/login", h.Login)
		router.POST("/api/auth/logout", h.Logout)
	})

	Describe("Register", func() {
		It("returns the normalized email", func() {
			auth.registerFn = func(_ context.Context, in service.RegisterInput) (string, error) {
				Expect(in.Username).To(Equal("ada"))
				return "ada@example.com", nil
			}

			w, env := do(router, http.MethodPost, "/api/auth/register", map[string]string{
				"username": "ada", "firstName": "Ada", "lastName": "Lovelace",
				"email": "Ada@Example.com", "password": "correct-horse",
			}, false)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(env.Success).To(BeTrue())
			Expect(string(env.Data)).To(MatchJSON(`{"email":"ada@example.com"}`))
		})

		It("maps a duplicate email to 409 with its code", func() {
			auth.registerFn = func(context.Context, service.RegisterInput) (string, error) {
				return "", service.ErrEmailExists
			}

			w, env := do(router, http.MethodPost, "/api/auth/register", map[string]string{
				"username": "ada", "firstName": "Ada", "lastName": "L",
				"email": "ada@example.com", "password": "correct-horse",
			}, false)

			Expect(w.Code).To(Equal(http.StatusConflict))
			Expect(env.Success).To(BeFalse())
			Expect(env.Code).To(Equal("USER_001"))
		})

		It("rejects a malformed body", func() {
			w, env := do(router, http.MethodPost, "/api/auth/register", `{`, false)
			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Code).To(Equal("VALIDATION_001"))
		})
	})

	Describe("Login", func() {
		It("sets an http-only session cookie", func() {
			auth.loginFn = func(_ context.Context, email, password string) (*service.Session, error) {
				return &service.Session{
					Token:     "signed",
					ExpiresAt: time.Now().Add(time.Hour),
					User:      &model.User{ID: 7, Email: email},
				}, nil
			}

			w, env := do(router, http.MethodPost, "/api/auth/login", map[string]string{
				"email": "ada@example.com", "password": "correct-horse",
			}, false)

			Expect(w.Code).To(Equal(http.StatusOK))
			cookies := w.Result().Cookies()
			Expect(cookies).To(HaveLen(1))
			Expect(cookies[0].Name).To(Equal(testCookie))
			Expect(cookies[0].Value).To(Equal("signed"))
			Expect(cookies[0].HttpOnly).To(BeTrue())

			var data dto.LoginResponse
			Expect(json.Unmarshal(env.Data, &data)).To(Succeed())
			Expect(data.User.ID).To(Equal(int64(7)))
			Expect(string(env.Data)).NotTo(ContainSubstring("signed"))
		})

		It("returns 401 on bad credentials without a cookie", func() {
			w, env := do(router, http.MethodPost, "/api/auth/login", map[string]string{
				"email": "ada@example.com", "password": "wrong-password",
			}, false)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(env.Code).To(Equal("AUTH_003"))
			Expect(w.Result().Cookies()).To(BeEmpty())
		})

		It("returns 400 when the email is not verified", func() {
			auth.loginFn = func(context.Context, string, string) (*service.Session, error) {
				return nil, service.ErrEmailNotVerified
			}

			w, env := do(router, http.MethodPost, "/api/auth/login", map[string]string{
				"email": "ada@example.com", "password": "correct-horse",
			}, false)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(env.Code).To(Equal("AUTH_004"))
		})
	})

	It("clears the cookie on logout", func() {
		w, env := do(router, http.MethodPost, "/api/auth/logout", nil, true)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(env.Success).To(BeTrue())
		cookies := w.Result().Cookies()
		Expect(cookies).To(HaveLen(1))
		Expect(cookies[0].MaxAge).To(BeNumerically("<", 0))
	})
})

var _ = Describe("OtpHandler", func() {
	var (
		router *gin.Engine
		otps   *mockOtpService
	)

	BeforeEach(func() {
		router = newEngine()
		otps = &mockOtpService{}
		h := handler.NewOtpHandler(otps)
		router.POST("/api/otp/send", h.Send)
		router.PUT("/api/otp/verify", h.Verify)
	})

	It("returns the expiry of a sent code", func() {
		expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		otps.sendFn = func(context.Context, string) (time.Time, error) { return expires, nil }

		w, env := do(router, http.MethodPost, "/api/otp/send", map[string]string{"email": "ada@example.com"}, false)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(string(env.Data)).To(MatchJSON(`{"expiresAt":"2026-01-02T03:04:05Z"}`))
	})

	It("returns 404 for an unknown email", func() {
		otps.sendFn = func(context.Context, string) (time.Time, error) { return time.Time{}, service.ErrUserNotFound }

		w, env := do(router, http.MethodPost, "/api/otp/send", map[string]string{"email": "who@example.com"}, false)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(env.Code).To(Equal("USER_002"))
	})

	DescribeTable("maps verification failures",
		func(err error, status int, code string) {
			otps.verifyFn = func(context.Context, string, string) error { return err }

			w, env := do(router, http.MethodPut, "/api/otp/verify", map[string]string{
				"email": "ada@example.com", "code": "123456",
			}, false)

			Expect(w.Code).To(Equal(status))
			Expect(env.Code).To(Equal(code))
		},
		Entry("no code", service.ErrOtpNotFound, http.StatusNotFound, "OTP_001"),
		Entry("expired", service.ErrOtpExpired, http.StatusBadRequest, "OTP_002"),
		Entry("mismatch", service.ErrOtpInvalid, http.StatusBadRequest, "OTP_003"),
	)

	It("rejects codes that are not six digits before calling the service", func() {
		otps.verifyFn = func(context.Context, string, string) error {
			Fail("service must not be called")
			return nil
		}

		w, env := do(router, http.MethodPut, "/api/otp/verify", map[string]string{
			"email": "ada@example.com", "code": "12ab",
		}, false)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(env.Code).To(Equal("VALIDATION_001"))
	})
})
