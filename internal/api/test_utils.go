package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful/backend/internal/model"
	"github.com/plateful/backend/internal/service"
)

const testJWTSecret = "test-secret"

// testEnv bundles the router, database and services for handler tests. The
// database is a per-test in-memory sqlite instance.
type testEnv struct {
	db      *gorm.DB
	router  *gin.Engine
	auth    *service.AuthService
	users   *service.UserService
	recipes *service.RecipeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.Tag{},
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeIngredient{},
		&model.FavoriteRecipe{},
		&model.ShoppingCart{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	authService := service.NewAuthService(db, testJWTSecret)
	userService := service.NewUserService(db)
	recipeService := service.NewRecipeService(db)
	shoppingListService := service.NewShoppingListService(db)
	imageService := service.NewImageService(nil)

	router := gin.New()
	v1 := router.Group("/api/v1")
	NewAuthHandler(authService).RegisterRoutes(v1)
	NewUserHandler(userService, authService, imageService).RegisterRoutes(v1)
	NewTagHandler(db).RegisterRoutes(v1)
	NewIngredientHandler(db, authService).RegisterRoutes(v1)
	NewRecipeHandler(
		recipeService,
		userService,
		shoppingListService,
		authService,
		imageService,
		"https://plateful.example.com",
		nil,
	).RegisterRoutes(v1)

	return &testEnv{
		db:      db,
		router:  router,
		auth:    authService,
		users:   userService,
		recipes: recipeService,
	}
}

// registerUser creates an account through the auth service and returns the
// user plus a bearer token.
func (e *testEnv) registerUser(t *testing.T, username string) (*model.User, string) {
	t.Helper()
	user, token, err := e.auth.Register(context.Background(), service.RegisterInput{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "password123",
	})
	if err != nil {
		t.Fatalf("failed to register test user: %v", err)
	}
	return user, token
}

func (e *testEnv) registerStaff(t *testing.T, username string) (*model.User, string) {
	t.Helper()
	user, _ := e.registerUser(t, username)
	if err := e.db.Model(user).Update("is_staff", true).Error; err != nil {
		t.Fatalf("failed to promote test user: %v", err)
	}
	user.IsStaff = true
	_, token, err := e.auth.Login(context.Background(), user.Email, "password123")
	if err != nil {
		t.Fatalf("failed to log staff user in: %v", err)
	}
	return user, token
}

func (e *testEnv) seedTag(t *testing.T, slug string) *model.Tag {
	t.Helper()
	tag := model.Tag{Name: slug, Slug: slug}
	if err := e.db.Create(&tag).Error; err != nil {
		t.Fatalf("failed to seed tag: %v", err)
	}
	return &tag
}

func (e *testEnv) seedIngredient(t *testing.T, name, unit string) *model.Ingredient {
	t.Helper()
	ingredient := model.Ingredient{Name: name, MeasurementUnit: unit}
	if err := e.db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to seed ingredient: %v", err)
	}
	return &ingredient
}

func (e *testEnv) seedRecipe(t *testing.T, author *model.User, name string, lines ...service.IngredientAmount) *model.Recipe {
	t.Helper()
	tag := e.seedTag(t, "tag-"+name)
	recipe, err := e.recipes.CreateRecipe(context.Background(), author.ID, service.RecipeInput{
		Name:        name,
		Text:        "instructions",
		CookingTime: 10,
		TagIDs:      []uuid.UUID{tag.ID},
		Ingredients: lines,
	})
	if err != nil {
		t.Fatalf("failed to seed recipe: %v", err)
	}
	return recipe
}

// request performs an HTTP request against the test router. A non-empty token
// is sent as a bearer Authorization header; a non-nil body is JSON-encoded.
func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
}
