package repository

import (
	"context"

	"postqueue/domain/model"
)

type IUser interface {
	GetByUserName(ctx context.Context, userName string) (model.User, error)
}
