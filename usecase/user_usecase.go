package usecase

import (
	"context"
	"crypto/md5"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt"

	"postqueue/domain/model"
	"postqueue/domain/repository"
	"postqueue/infrastructure/configuration"
	"postqueue/infrastructure/logger"
)

type LoginResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type IUserUsecase interface {
	Login(ctx context.Context, userName, password string) (*LoginResult, error)
}

type UserUsecase struct {
	users repository.IUser
}

func NewUserUsecase(users repository.IUser) *UserUsecase {
	return &UserUsecase{users: users}
}

func (u *UserUsecase) Login(ctx context.Context, userName, password string) (*LoginResult, error) {
	user, err := u.users.GetByUserName(ctx, userName)
	if err != nil {
		return nil, fmt.Errorf("invalid username or password")
	}
	hashed := fmt.Sprintf("%x", md5.Sum([]byte(password)))
	if user.Password != hashed {
		return nil, fmt.Errorf("invalid username or password")
	}

	claims := model.UserClaims{
		UserName: user.UserName,
		StandardClaims: jwt.StandardClaims{
			Issuer:    strconv.FormatInt(user.ID, 10),
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(configuration.C.App.SecretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generating token")
		return nil, fmt.Errorf("could not issue session token")
	}
	return &LoginResult{Token: signed, User: &user}, nil
}
