package writegate

import "context"

type recoveryTokenKey struct{}

// WithRecoveryToken 让 ctx 携带恢复通行证；空 token 原样返回 ctx
func WithRecoveryToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, recoveryTokenKey{}, token)
}

// RecoveryToken 取出 ctx 携带的恢复通行证
func RecoveryToken(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	token, ok := ctx.Value(recoveryTokenKey{}).(string)
	return token, ok && token != ""
}
