package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/tobiloba/kudiwallet/internal/models"
	"github.com/tobiloba/kudiwallet/internal/repository"
	"github.com/tobiloba/kudiwallet/internal/request"
	"github.com/tobiloba/kudiwallet/internal/response"
	"github.com/tobiloba/kudiwallet/internal/validator"

	"github.com/cradoe/gopass"
	"github.com/jmoiron/sqlx"
	"github.com/pascaldekloe/jwt"
	"github.com/tobiloba/kudiwallet/internal/money"
)

func (h *RouteHandler) newWalletNumber() (string, error) {
	for {
		number, err := money.GenerateWalletNumber()
		if err != nil {
			return "", err
		}

		exists, err := h.DB.Wallet().WalletNumberExists(number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
}

// Registration inserts the user and provisions their wallet in one storage
// transaction; a failure at any point rolls both back.
func (h *RouteHandler) HandleAuthRegister(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		FirstName string              `json:"first_name"`
		LastName  string              `json:"last_name"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	// strong passwords are non-negotiable for a money product
	_, errs := gopass.Validate(input.Password)
	if errs != nil {
		h.ErrHandler.FailedValidation(w, r, errs)
		return
	}

	_, found, err := h.DB.User().GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(!found, "Email is already in use")

	input.Validator.Check(validator.NotBlank(input.FirstName), "First name is required")
	input.Validator.Check(validator.MinRunes(input.FirstName, 2), "First name is too short")

	input.Validator.Check(validator.NotBlank(input.LastName), "Last name is required")
	input.Validator.Check(validator.MinRunes(input.LastName, 2), "Last name is too short")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	hashedPassword, err := gopass.Hash(input.Password)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	var userID string
	var walletNumber string

	err = h.DB.InTx(r.Context(), func(tx *sqlx.Tx) error {
		userID, err = h.DB.User().Insert(&models.User{
			FirstName:      input.FirstName,
			LastName:       input.LastName,
			Email:          input.Email,
			HashedPassword: hashedPassword,
		}, tx)
		if err != nil {
			return err
		}

		number, err := h.newWalletNumber()
		if err != nil {
			return err
		}

		created, err := h.DB.Wallet().Insert(&models.Wallet{
			UserID:       userID,
			WalletNumber: number,
		}, tx)
		if err != nil {
			return err
		}

		walletNumber = created.WalletNumber
		return nil
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.Helper.BackgroundTask(r, func() error {
		_, err := h.DB.AccountLog().Insert(&models.AccountLog{
			UserID:      userID,
			Entity:      repository.AccountLogWalletEntity,
			EntityID:    userID,
			Description: "Account registered, wallet provisioned",
		})
		if err != nil {
			log.Printf("Error logging registration: %v", err)
			return err
		}

		return nil
	})

	message := "Account created successfully"

	data := map[string]any{
		"wallet_number": walletNumber,
	}

	err = response.JSONCreatedResponse(w, data, message)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *RouteHandler) HandleAuthLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string              `json:"email"`
		Password  string              `json:"password"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	user, found, err := h.DB.User().GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.Email), "Email is required")
	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.NotBlank(input.Password), "Password is required")
	input.Validator.Check(found, "Incorrect email/password")

	if found {
		if user.Status == repository.UserAccountLockedStatus {
			h.ErrHandler.FailedValidation(w, r, []string{"Account has been locked. Please contact support"})
			return
		}

		passwordMatches, err := gopass.ComparePasswordAndHash(input.Password, user.HashedPassword)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		input.Validator.Check(passwordMatches, "Incorrect email/password")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	var claims jwt.Claims
	claims.Subject = user.ID

	expiry := time.Now().Add(24 * time.Hour)
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(expiry)

	claims.Issuer = h.Config.BaseURL
	claims.Audiences = []string{h.Config.BaseURL}

	jwtBytes, err := claims.HMACSign(jwt.HS256, []byte(h.Config.Jwt.SecretKey))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	data := map[string]any{
		"auth_token":   string(jwtBytes),
		"token_expiry": expiry.Format(time.RFC3339),
	}

	message := "Login successful"
	err = response.JSONOkResponse(w, data, message, nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
