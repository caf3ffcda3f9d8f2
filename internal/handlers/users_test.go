package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	authmw "github.com/greenstay/hotelenergy/internal/middleware/auth"
	"github.com/greenstay/hotelenergy/internal/models"
	"github.com/greenstay/hotelenergy/internal/rbac"
	"github.com/greenstay/hotelenergy/internal/service"
)

func newUserHandler(t *testing.T) (*UserHandler, *service.UserService, *authmw.Middleware, *service.TokenService) {
	db := initTestDB(t)
	users := &service.UserService{DB: db}
	toks := &service.TokenService{
		DB:            db,
		JWTSecret:     []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	}
	return &UserHandler{Users: users}, users, &authmw.Middleware{Tokens: toks}, toks
}

// callAs runs the handler behind the real authentication middleware so
// the identity lookup goes through the same path as production.
func callAs(t *testing.T, mw *authmw.Middleware, toks *service.TokenService, actor *models.User,
	handler echo.HandlerFunc, c echo.Context) error {
	t.Helper()
	access, _, err := toks.IssueAccess(actor)
	require.NoError(t, err)
	c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+access)
	return mw.Authenticate(handler)(c)
}

func TestCreateUser(t *testing.T) {
	h, _, _, _ := newUserHandler(t)

	c, rec := jsonContext(http.MethodPost, "/api/v1/users",
		`{"username":"bob","password":"`+testPassword+`","email":"bob@example.com","role":"viewer"}`)
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "bob", created.Username)
	require.Equal(t, rbac.RoleViewer, created.Role)
	require.NotContains(t, rec.Body.String(), "password_hash")
}

func TestCreateUserWeakPassword(t *testing.T) {
	h, _, _, _ := newUserHandler(t)

	c, _ := jsonContext(http.MethodPost, "/api/v1/users",
		`{"username":"bob","password":"short"}`)
	requireStatus(t, h.Create(c), http.StatusBadRequest)
}

func TestCreateUserDuplicates(t *testing.T) {
	h, users, _, _ := newUserHandler(t)
	user := createUser(t, users, "bob", rbac.RoleUser)
	email := "bob@example.com"
	require.NoError(t, users.DB.Model(user).Update("email", email).Error)

	c, _ := jsonContext(http.MethodPost, "/api/v1/users",
		`{"username":"bob","password":"`+testPassword+`"}`)
	requireStatus(t, h.Create(c), http.StatusConflict)

	c, _ = jsonContext(http.MethodPost, "/api/v1/users",
		`{"username":"other","password":"`+testPassword+`","email":"bob@example.com"}`)
	requireStatus(t, h.Create(c), http.StatusConflict)
}

func TestCreateUserUnknownRole(t *testing.T) {
	h, _, _, _ := newUserHandler(t)

	c, _ := jsonContext(http.MethodPost, "/api/v1/users",
		`{"username":"bob","password":"`+testPassword+`","role":"superuser"}`)
	requireStatus(t, h.Create(c), http.StatusBadRequest)
}

func TestMe(t *testing.T) {
	h, users, mw, toks := newUserHandler(t)
	actor := createUser(t, users, "alice", rbac.RoleAdmin)

	c, rec := jsonContext(http.MethodGet, "/api/v1/users/me", "")
	require.NoError(t, callAs(t, mw, toks, actor, h.Me, c))
	require.Equal(t, http.StatusOK, rec.Code)

	var me models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	require.Equal(t, actor.ID, me.ID)
	require.Equal(t, "alice", me.Username)
}

func TestGetUser(t *testing.T) {
	h, users, _, _ := newUserHandler(t)
	user := createUser(t, users, "bob", rbac.RoleUser)

	c, rec := jsonContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(user.ID))
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserNotFound(t *testing.T) {
	h, _, _, _ := newUserHandler(t)

	c, _ := jsonContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues("9999")
	requireStatus(t, h.Get(c), http.StatusNotFound)
}

func TestListUsersPagination(t *testing.T) {
	h, users, _, _ := newUserHandler(t)
	for _, name := range []string{"u1", "u2", "u3"} {
		createUser(t, users, name, rbac.RoleUser)
	}

	c, rec := jsonContext(http.MethodGet, "/api/v1/users?page=1&size=2", "")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []models.User  `json:"data"`
		Meta map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 2)
	require.EqualValues(t, 3, body.Meta["total"])
}

func TestUpdateOwnRoleForbidden(t *testing.T) {
	h, users, mw, toks := newUserHandler(t)
	actor := createUser(t, users, "alice", rbac.RoleAdmin)

	c, _ := jsonContext(http.MethodPatch, "/", `{"role":"user"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(actor.ID))
	err := callAs(t, mw, toks, actor, h.Update, c)
	requireStatus(t, err, http.StatusForbidden)
}

func TestUpdateRole(t *testing.T) {
	h, users, mw, toks := newUserHandler(t)
	actor := createUser(t, users, "alice", rbac.RoleAdmin)
	target := createUser(t, users, "bob", rbac.RoleUser)

	c, rec := jsonContext(http.MethodPatch, "/", `{"role":"viewer"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(target.ID))
	require.NoError(t, callAs(t, mw, toks, actor, h.Update, c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.Equal(t, rbac.RoleViewer, updated.Role)
}

func TestDemoteLastAdminForbidden(t *testing.T) {
	h, users, mw, toks := newUserHandler(t)
	admin := createUser(t, users, "root", rbac.RoleAdmin)
	actor := createUser(t, users, "watcher", rbac.RoleViewer)

	c, _ := jsonContext(http.MethodPatch, "/", `{"role":"user"}`)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(admin.ID))
	err := callAs(t, mw, toks, actor, h.Update, c)
	requireStatus(t, err, http.StatusForbidden)
}

func TestDeleteUser(t *testing.T) {
	h, users, mw, toks := newUserHandler(t)
	actor := createUser(t, users, "alice", rbac.RoleAdmin)
	target := createUser(t, users, "bob", rbac.RoleUser)

	c, rec := jsonContext(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(target.ID))
	require.NoError(t, callAs(t, mw, toks, actor, h.Delete, c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	c, _ = jsonContext(http.MethodGet, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(target.ID))
	requireStatus(t, h.Get(c), http.StatusNotFound)
}

func TestDeleteSelfForbidden(t *testing.T) {
	h, users, mw, toks := newUserHandler(t)
	actor := createUser(t, users, "alice", rbac.RoleAdmin)

	c, _ := jsonContext(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(actor.ID))
	err := callAs(t, mw, toks, actor, h.Delete, c)
	requireStatus(t, err, http.StatusForbidden)
}

func TestDeleteLastAdminForbidden(t *testing.T) {
	h, users, mw, toks := newUserHandler(t)
	admin := createUser(t, users, "root", rbac.RoleAdmin)
	actor := createUser(t, users, "watcher", rbac.RoleViewer)

	c, _ := jsonContext(http.MethodDelete, "/", "")
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(admin.ID))
	err := callAs(t, mw, toks, actor, h.Delete, c)
	requireStatus(t, err, http.StatusForbidden)
}
