package ctxutil

import "context"

type gameDataKey struct{}

// GameData identifies the game a request acts on. It is mutable so handlers
// can fill it in after routing, for middleware that logs once the handler
// returns.
type GameData struct {
	GameID string
}

func WithGameData(ctx context.Context) context.Context {
	if GetGameData(ctx) != nil {
		return ctx
	}
	return context.WithValue(ctx, gameDataKey{}, &GameData{})
}

func GetGameData(ctx context.Context) *GameData {
	if ctx == nil {
		return nil
	}
	if gd, ok := ctx.Value(gameDataKey{}).(*GameData); ok {
		return gd
	}
	return nil
}
