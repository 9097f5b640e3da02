package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func setupAuthConfig() {
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 64*1024)
	viper.Set("argon2.threads", 4)
	viper.Set("argon2.key_length", 32)
	viper.Set("jwt.secret_key", "test-secret")
	viper.Set("jwt.expiry_hours", 24)
}

func TestAuthService_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()
	service := NewAuthService(db, nil, zap.NewNop())

	t.Run("successful registration", func(t *testing.T) {
		req := RegisterRequest{
			Email:         "payroll@acme.example",
			Password:      "password123",
			Name:          "Acme Payroll",
			WalletAddress: "0xa1b2c3",
		}

		mock.ExpectQuery("INSERT INTO operators").
			WithArgs(req.Email, sqlmock.AnyArg(), req.Name, req.WalletAddress).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, req.Email, response.User.Email)
		assert.Equal(t, req.WalletAddress, response.User.WalletAddress)
	})

	t.Run("invalid request body", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer([]byte("invalid")))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing wallet address", func(t *testing.T) {
		req := RegisterRequest{
			Email:    "payroll@acme.example",
			Password: "password123",
			Name:     "Acme Payroll",
		}
		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		req := RegisterRequest{
			Email:         "payroll@acme.example",
			Password:      "password123",
			Name:          "Acme Payroll",
			WalletAddress: "0xa1b2c3",
		}
		mock.ExpectQuery("INSERT INTO operators").
			WillReturnError(sql.ErrConnDone)

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestAuthService_Login(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	setupAuthConfig()
	service := NewAuthService(db, nil, zap.NewNop())

	t.Run("successful login", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, email, name, wallet_address, password FROM operators").
			WithArgs("payroll@acme.example").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "wallet_address", "password"}).
				AddRow(1, "payroll@acme.example", "Acme Payroll", "0xa1b2c3", hashedPassword))

		req := LoginRequest{
			Email:    "payroll@acme.example",
			Password: "password123",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.NotEmpty(t, response.Token)
		assert.Equal(t, "0xa1b2c3", response.User.WalletAddress)
	})

	t.Run("wrong password", func(t *testing.T) {
		hashedPassword, _ := hashPassword("password123")

		mock.ExpectQuery("SELECT id, email, name, wallet_address, password FROM operators").
			WithArgs("payroll@acme.example").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "wallet_address", "password"}).
				AddRow(1, "payroll@acme.example", "Acme Payroll", "0xa1b2c3", hashedPassword))

		req := LoginRequest{
			Email:    "payroll@acme.example",
			Password: "wrongpassword",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("operator not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, name, wallet_address, password FROM operators").
			WithArgs("nobody@acme.example").
			WillReturnError(sql.ErrNoRows)

		req := LoginRequest{
			Email:    "nobody@acme.example",
			Password: "password123",
		}

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Login(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestPasswordHashing(t *testing.T) {
	setupAuthConfig()

	password := "testpassword"

	hashed, err := hashPassword(password)
	assert.NoError(t, err)
	assert.NotEmpty(t, hashed)

	assert.True(t, verifyPassword(password, hashed))
	assert.False(t, verifyPassword("wrongpassword", hashed))
	assert.False(t, verifyPassword(password, "not-a-valid-hash"))
}

func TestGenerateJWT(t *testing.T) {
	setupAuthConfig()

	token, err := generateJWT(123, "0xa1b2c3")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}
