package api

import (
	"context"
	"crypto/subtle"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const authorizationHeader = "authorization"

// TokenAuthInterceptor requires "authorization: Bearer <token>" on every
// inventory.v1.InventoryService call. Other services (health, reflection)
// pass through. An empty token rejects every inventory call.
func TokenAuthInterceptor(token string) grpc.UnaryServerInterceptor {
	prefix := "/" + inventoryServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}
		if token == "" || !validBearer(ctx, token) {
			return nil, status.Error(codes.Unauthenticated, "missing or invalid bearer token")
		}
		return handler(ctx, req)
	}
}

func validBearer(ctx context.Context, token string) bool {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return false
	}
	for _, v := range md.Get(authorizationHeader) {
		got, found := strings.CutPrefix(v, "Bearer ")
		if found && subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1 {
			return true
		}
	}
	return false
}

// BearerToken attaches a static bearer token to every call of a connection.
type BearerToken struct {
	Token string
	// AllowInsecure lets the token travel over a plaintext connection.
	AllowInsecure bool
}

func (b BearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{authorizationHeader: "Bearer " + b.Token}, nil
}

func (b BearerToken) RequireTransportSecurity() bool { return !b.AllowInsecure }

var _ credentials.PerRPCCredentials = BearerToken{}
