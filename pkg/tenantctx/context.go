package tenantctx

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type keyType string

const (
	ClientIDKey keyType = "client_id"
)

func WithClientID(ctx context.Context, id snowflake.ID) context.Context {
	return context.WithValue(ctx, ClientIDKey, id)
}

func ClientID(ctx context.Context) (snowflake.ID, bool) {
	id, ok := ctx.Value(ClientIDKey).(snowflake.ID)
	return id, ok
}
