package project

import (
	"context"

	"github.com/rpggio/statusboard/internal/dataset"
)

// Tables provides the raw projects sheet.
type Tables interface {
	Load(ctx context.Context, name string, force bool) dataset.Result
}
