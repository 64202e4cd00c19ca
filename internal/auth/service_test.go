package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	pkgAuth "github.com/sugicreations/sugi-backend/pkg/auth"
	"github.com/sugicreations/sugi-backend/pkg/auth/session"
	"github.com/sugicreations/sugi-backend/pkg/config"
	"github.com/sugicreations/sugi-backend/pkg/db/models"
	"github.com/sugicreations/sugi-backend/pkg/enums"
	pkgerrors "github.com/sugicreations/sugi-backend/pkg/errors"
	"github.com/sugicreations/sugi-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:                 "secret",
	Issuer:                 "sugi-creations",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 600,
}

type fakeMembers struct {
	byEmail   map[string]*models.Member
	lastLogin map[uuid.UUID]time.Time
	rehashed  map[uuid.UUID]string
}

func newFakeMembers(list ...*models.Member) *fakeMembers {
	f := &fakeMembers{
		byEmail:   map[string]*models.Member{},
		lastLogin: map[uuid.UUID]time.Time{},
		rehashed:  map[uuid.UUID]string{},
	}
	for _, m := range list {
		f.byEmail[m.Email] = m
	}
	return f
}

func (f *fakeMembers) FindByEmail(_ context.Context, email string) (*models.Member, error) {
	m, ok := f.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *m
	return &clone, nil
}

func (f *fakeMembers) FindByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	for _, m := range f.byEmail {
		if m.ID == id {
			clone := *m
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMembers) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin[id] = at
	return nil
}

func (f *fakeMembers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	f.rehashed[id] = hash
	return nil
}

type fakeSessions struct {
	tokens map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{tokens: map[string]string{}}
}

func (f *fakeSessions) Issue(context.Context) (string, string, error) {
	accessID := uuid.NewString()
	token := "refresh-" + accessID
	f.tokens[accessID] = token
	return accessID, token, nil
}

func (f *fakeSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.tokens[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.tokens, oldAccessID)
	return f.Issue(ctx)
}

func (f *fakeSessions) Revoke(_ context.Context, accessID string) error {
	delete(f.tokens, accessID)
	return nil
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

func buildTestService(t *testing.T, list ...*models.Member) (Service, *fakeMembers, *fakeSessions) {
	t.Helper()
	repo := newFakeMembers(list...)
	sessions := newFakeSessions()
	svc, err := NewService(ServiceParams{
		Members:        repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, repo, sessions
}

func adminMember(t *testing.T) *models.Member {
	return &models.Member{
		ID:           uuid.New(),
		Name:         "Sugi Admin",
		Email:        "admin@sugi.shop",
		PasswordHash: mustHashPassword(t, "admin-secret"),
		Role:         enums.MemberRoleAdmin,
	}
}

func TestLoginIssuesRoleClaimAndSession(t *testing.T) {
	member := adminMember(t)
	svc, repo, sessions := buildTestService(t, member)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Admin@Sugi.Shop", Password: "admin-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if !claims.IsAdmin() {
		t.Fatalf("expected admin role claim, got %s", claims.Role)
	}
	if claims.MemberID != member.ID {
		t.Fatalf("expected member id %s, got %s", member.ID, claims.MemberID)
	}
	if sessions.tokens[claims.ID] != resp.RefreshToken {
		t.Fatalf("expected refresh token stored under jti")
	}
	if _, ok := repo.lastLogin[member.ID]; !ok {
		t.Fatalf("expected last login to be recorded")
	}
	if resp.Member.LastLoginAt == nil {
		t.Fatalf("expected last login on response")
	}
	if len(repo.rehashed) != 0 {
		t.Fatalf("argon hashes must not be rehashed")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, sessions := buildTestService(t, adminMember(t))

	for _, req := range []LoginRequest{
		{Email: "admin@sugi.shop", Password: "wrong"},
		{Email: "nobody@sugi.shop", Password: "admin-secret"},
		{Email: "", Password: "admin-secret"},
	} {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %q, got %v", req.Email, err)
		}
	}
	if len(sessions.tokens) != 0 {
		t.Fatalf("failed logins must not open sessions")
	}
}

func TestLoginRehashesLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	member := &models.Member{ID: uuid.New(), Name: "Legacy", Email: "legacy@example.com", PasswordHash: string(legacy), Role: enums.MemberRoleUser}
	svc, repo, _ := buildTestService(t, member)

	if _, err := svc.Login(context.Background(), LoginRequest{Email: member.Email, Password: "old-secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	hash, ok := repo.rehashed[member.ID]
	if !ok {
		t.Fatalf("expected bcrypt hash to be upgraded")
	}
	if security.NeedsRehash(hash) {
		t.Fatalf("expected argon2id hash, got %q", hash)
	}
}

func TestRefreshRotatesSessionAndPicksUpRole(t *testing.T) {
	member := adminMember(t)
	member.Role = enums.MemberRoleUser
	svc, repo, sessions := buildTestService(t, member)
	ctx := context.Background()

	first, err := svc.Login(ctx, LoginRequest{Email: member.Email, Password: "admin-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	repo.byEmail[member.Email].Role = enums.MemberRoleAdmin

	second, err := svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("expected rotated refresh token")
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, second.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if !claims.IsAdmin() {
		t.Fatalf("expected promoted role on refreshed token")
	}
	if len(sessions.tokens) != 1 {
		t.Fatalf("expected old session removed, have %d", len(sessions.tokens))
	}

	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: first.AccessToken, RefreshToken: first.RefreshToken})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected reused refresh token to fail, got %v", err)
	}
}

func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	member := adminMember(t)
	repo := newFakeMembers(member)
	sessions := newFakeSessions()
	svc, err := NewService(ServiceParams{
		Members:        repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
		Now:            func() time.Time { return time.Now().Add(-2 * time.Hour) },
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	resp, err := svc.Login(context.Background(), LoginRequest{Email: member.Email, Password: "admin-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken); err == nil {
		t.Fatalf("expected access token to be expired")
	}
	if _, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: resp.AccessToken, RefreshToken: resp.RefreshToken}); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	svc, _, _ := buildTestService(t, adminMember(t))

	_, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: "garbage", RefreshToken: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	member := adminMember(t)
	svc, _, sessions := buildTestService(t, member)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Email: member.Email, Password: "admin-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.tokens) != 0 {
		t.Fatalf("expected session revoked")
	}
	if err := svc.Logout(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank session, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{SessionManager: newFakeSessions()}); err == nil {
		t.Fatalf("expected error without member repository")
	}
	if _, err := NewService(ServiceParams{Members: newFakeMembers()}); err == nil {
		t.Fatalf("expected error without session manager")
	}
}
