package httpserver

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"storefront/internal/domain"
	usersvc "storefront/internal/service/user"
)

func TestRegisterCreated(t *testing.T) {
	router, td := newTestRouter(t, nil)
	td.users.user = &domain.User{ID: "u-1", Email: "ada@example.com", PasswordHash: "secret-hash", Token: "pending", OTP: "123456"}

	rec := do(router, http.MethodPost, "/api/v1/user/register", "", "application/json",
		`{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","password":"pw"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	for _, leaked := range []string{"secret-hash", "pending", "123456", "password"} {
		if strings.Contains(rec.Body.String(), leaked) {
			t.Fatalf("response leaks %q: %s", leaked, rec.Body.String())
		}
	}
	if td.users.lastRegister.FirstName != "Ada" || td.users.lastRegister.Password != "pw" {
		t.Fatalf("unexpected register input %+v", td.users.lastRegister)
	}
}

func TestRegisterConflict(t *testing.T) {
	router, td := newTestRouter(t, nil)
	td.users.err = domain.Errorf(domain.ErrAlreadyExists, "User already exists")
	rec := do(router, http.MethodPost, "/api/v1/user/register", "", "application/json", `{"email":"ada@example.com"}`)
	expectEnvelope(t, rec, http.StatusBadRequest, "User already exists")
}

func TestVerifyUsesBearerToken(t *testing.T) {
	router, td := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/api/v1/user/verify", "", "", "")
	expectEnvelope(t, rec, http.StatusBadRequest, "Authorization token is missing or invalid")

	rec = do(router, http.MethodGet, "/api/v1/user/verify", "verify-jwt", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if td.users.lastToken != "verify-jwt" {
		t.Fatalf("expected token to be passed, got %q", td.users.lastToken)
	}

	td.users.err = domain.Invalid("The registration token has expired")
	rec = do(router, http.MethodGet, "/api/v1/user/verify", "verify-jwt", "", "")
	expectEnvelope(t, rec, http.StatusBadRequest, "The registration token has expired")
}

func TestLoginResponse(t *testing.T) {
	router, td := newTestRouter(t, nil)
	td.users.login = &usersvc.LoginResult{User: testUser, AccessToken: "acc", RefreshToken: "ref"}

	rec := do(router, http.MethodPost, "/api/v1/user/login", "", "application/json", `{"email":"ada@example.com","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["accessToken"] != "acc" || body["refreshToken"] != "ref" {
		t.Fatalf("expected tokens, got %v", body)
	}
	user := body["user"].(map[string]any)
	if user["email"] != "ada@example.com" {
		t.Fatalf("unexpected user %v", user)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, td := newTestRouter(t, nil)
	td.users.err = domain.Errorf(domain.ErrInvalidCredentials, "Invalid password")
	rec := do(router, http.MethodPost, "/api/v1/user/login", "", "application/json", `{"email":"ada@example.com","password":"bad"}`)
	expectEnvelope(t, rec, http.StatusBadRequest, "Invalid password")
}

func TestLogoutUsesAuthenticatedUser(t *testing.T) {
	router, td := newTestRouter(t, nil)
	rec := do(router, http.MethodPost, "/api/v1/user/logout", "user-token", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if td.users.logoutID != testUser.ID {
		t.Fatalf("expected logout of %s, got %q", testUser.ID, td.users.logoutID)
	}
}

func TestOTPRoutes(t *testing.T) {
	router, td := newTestRouter(t, nil)

	rec := do(router, http.MethodPost, "/api/v1/user/verify-otp/ada@example.com", "", "application/json", `{"otp":"123456"}`)
	if rec.Code != http.StatusOK || td.users.lastOTP != "123456" || td.users.lastEmail != "ada@example.com" {
		t.Fatalf("unexpected verify-otp result %d %+v", rec.Code, td.users)
	}

	td.users.err = domain.Invalid("Password do not match")
	rec = do(router, http.MethodPost, "/api/v1/user/change-password/ada@example.com", "", "application/json", `{"newPassword":"a","confirmPassword":"b"}`)
	expectEnvelope(t, rec, http.StatusBadRequest, "Password do not match")
}

func TestAllUsersIsAdminOnly(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	rec := do(router, http.MethodGet, "/api/v1/user/all-user", "user-token", "", "")
	expectEnvelope(t, rec, http.StatusForbidden, "")

	rec = do(router, http.MethodGet, "/api/v1/user/all-user", "admin-token", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	users := decode(t, rec)["users"].([]any)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestGetUserNotFound(t *testing.T) {
	router, td := newTestRouter(t, nil)
	td.users.err = domain.NotFound("User not found")
	rec := do(router, http.MethodGet, "/api/v1/user/get-user/abc", "", "", "")
	expectEnvelope(t, rec, http.StatusNotFound, "User not found")
	if td.users.lastTarget != "abc" {
		t.Fatalf("expected lookup of abc, got %q", td.users.lastTarget)
	}
}

func TestUpdateProfileMultipart(t *testing.T) {
	router, td := newTestRouter(t, nil)
	td.users.user = testUser

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("city", "London")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	h.Set("Content-Type", "image/png")
	part, _ := w.CreatePart(h)
	_, _ = part.Write([]byte("png-bytes"))
	_ = w.Close()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/user/update/"+testUser.ID, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer user-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if td.users.lastTarget != testUser.ID || td.users.lastProfile.City != "London" {
		t.Fatalf("unexpected profile input %q %+v", td.users.lastTarget, td.users.lastProfile)
	}
	if td.users.lastImage == nil || td.users.lastImage.Filename != "me.png" || td.users.lastImage.ContentType != "image/png" {
		t.Fatalf("expected uploaded image, got %+v", td.users.lastImage)
	}
}

func TestUpdateProfileForbidden(t *testing.T) {
	router, td := newTestRouter(t, nil)
	td.users.err = domain.Errorf(domain.ErrForbidden, "You are not allowed to update this profile")
	rec := do(router, http.MethodPut, "/api/v1/user/update/someone-else", "user-token", "application/x-www-form-urlencoded", "city=Paris")
	expectEnvelope(t, rec, http.StatusForbidden, "You are not allowed to update this profile")
	if td.users.lastProfile.City != "Paris" || td.users.lastImage != nil {
		t.Fatalf("expected form field without image, got %+v %+v", td.users.lastProfile, td.users.lastImage)
	}
}
