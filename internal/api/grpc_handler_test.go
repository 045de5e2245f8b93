package api

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"inventory-service/internal/domain"
	"inventory-service/internal/store"
	"inventory-service/internal/view"
)

const testGRPCToken = "grpc-test-token"

// dialBufnet opens a client connection to lis with extra dial options.
func dialBufnet(t *testing.T, lis *bufconn.Listener, opts ...grpc.DialOption) *grpc.ClientConn {
	t.Helper()
	opts = append([]grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func startGRPC(t *testing.T) (*bufconn.Listener, *MockProductService) {
	t.Helper()
	products := new(MockProductService)
	lis := bufconn.Listen(1 << 20)

	server := grpc.NewServer(grpc.UnaryInterceptor(TokenAuthInterceptor(testGRPCToken)))
	RegisterInventoryServiceServer(server, NewGRPCHandler(products, nil))
	grpc_health_v1.RegisterHealthServer(server, health.NewServer())
	go func() { _ = server.Serve(lis) }()

	t.Cleanup(func() {
		server.Stop()
		products.AssertExpectations(t)
	})
	return lis, products
}

func setupGRPC(t *testing.T) (*InventoryServiceClient, *MockProductService) {
	t.Helper()
	lis, products := startGRPC(t)
	conn := dialBufnet(t, lis, grpc.WithPerRPCCredentials(BearerToken{Token: testGRPCToken, AllowInsecure: true}))
	return NewInventoryServiceClient(conn), products
}

func TestGRPC_RejectsMissingOrWrongToken(t *testing.T) {
	lis, _ := startGRPC(t)
	ctx := context.Background()

	anonymous := NewInventoryServiceClient(dialBufnet(t, lis))
	_, err := anonymous.DeleteProduct(ctx, 1)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = anonymous.ClearCart(ctx, []int64{1, 2, 3})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = anonymous.ToggleFlag(ctx, 1, domain.ToggleToBuy, true)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	wrong := NewInventoryServiceClient(dialBufnet(t, lis,
		grpc.WithPerRPCCredentials(BearerToken{Token: "guess", AllowInsecure: true})))
	_, err = wrong.ListProducts(ctx)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPC_HealthIsOpen(t *testing.T) {
	lis, _ := startGRPC(t)

	res, err := grpc_health_v1.NewHealthClient(dialBufnet(t, lis)).
		Check(context.Background(), &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, res.GetStatus())
}

func TestTokenAuthInterceptor_EmptyTokenRejectsAll(t *testing.T) {
	interceptor := TokenAuthInterceptor("")
	info := &grpc.UnaryServerInfo{FullMethod: "/" + inventoryServiceName + "/ListProducts"}
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "))

	_, err := interceptor(ctx, nil, info, func(context.Context, any) (any, error) { return "ok", nil })
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestGRPC_ListProducts(t *testing.T) {
	client, products := setupGRPC(t)
	products.On("ListProducts", mock.Anything).Return([]*domain.Product{
		{ID: 1, Title: "Lait", ToBuy: true, Category: &domain.CategoryRef{Name: "Frais"}},
	}).Once()

	out, err := client.ListProducts(context.Background())
	require.NoError(t, err)

	var decoded struct {
		Products []*domain.Product `json:"products"`
	}
	require.NoError(t, DecodeStruct(out, &decoded))
	require.Len(t, decoded.Products, 1)
	assert.Equal(t, int64(1), decoded.Products[0].ID)
	assert.Equal(t, "Frais", decoded.Products[0].Category.Name)
}

func TestGRPC_ListCategories(t *testing.T) {
	client, products := setupGRPC(t)
	products.On("ListCategories", mock.Anything).Return([]domain.Category{{ID: 1, Name: "Frais"}}).Once()

	out, err := client.ListCategories(context.Background())
	require.NoError(t, err)

	var decoded struct {
		Categories []domain.Category `json:"categories"`
	}
	require.NoError(t, DecodeStruct(out, &decoded))
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Frais"}}, decoded.Categories)
}

func TestGRPC_ToggleFlag(t *testing.T) {
	client, products := setupGRPC(t)
	products.On("ToggleFlag", mock.Anything, int64(4), domain.ToggleToBuy, true).Return(domain.OK("")).Once()
	products.On("ToggleFlag", mock.Anything, int64(5), domain.ToggleInCart, false).
		Return(domain.Fail(store.ErrProductNotFound, "Produit introuvable.")).Once()

	out, err := client.ToggleFlag(context.Background(), 4, domain.ToggleToBuy, true)
	require.NoError(t, err)
	assert.True(t, out.GetFields()["success"].GetBoolValue())

	_, err = client.ToggleFlag(context.Background(), 5, domain.ToggleInCart, false)
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
	assert.Equal(t, "Produit introuvable.", status.Convert(err).Message())
}

func TestGRPC_ToggleFlag_InvalidArgument(t *testing.T) {
	client, _ := setupGRPC(t)

	_, err := client.ToggleFlag(context.Background(), 0, domain.ToggleToBuy, true)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.ToggleFlag(context.Background(), 1, domain.ToggleKind(7), true)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGRPC_ClearCartAndDelete(t *testing.T) {
	client, products := setupGRPC(t)
	products.On("ClearCart", mock.Anything, []int64{2, 3}).Return(domain.OK("")).Once()
	products.On("DeleteProduct", mock.Anything, int64(9)).Return(domain.OK("Produit supprimé avec succès.")).Once()

	_, err := client.ClearCart(context.Background(), []int64{2, 3})
	require.NoError(t, err)

	out, err := client.DeleteProduct(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "Produit supprimé avec succès.", out.GetFields()["message"].GetStringValue())
}

func TestGRPC_DeriveView(t *testing.T) {
	client, products := setupGRPC(t)
	items := []*domain.Product{
		{ID: 1, Title: "Lait", ToBuy: true, Category: &domain.CategoryRef{Name: "Frais"}},
		{ID: 2, Title: "Café", ToBuy: true, InCart: true},
	}
	products.On("View", mock.Anything, "a", domain.PageShopping).
		Return(view.Derive(items, "a", domain.PageShopping)).Once()

	out, err := client.DeriveView(context.Background(), "a", domain.PageShopping)
	require.NoError(t, err)

	var decoded struct {
		Groups []struct {
			Category string `json:"category"`
		} `json:"groups"`
		InCart []*domain.Product `json:"in_cart"`
	}
	require.NoError(t, DecodeStruct(out, &decoded))
	require.Len(t, decoded.Groups, 1)
	assert.Equal(t, "Frais", decoded.Groups[0].Category)
	require.Len(t, decoded.InCart, 1)
	assert.Equal(t, "Café", decoded.InCart[0].Title)

	_, err = client.DeriveView(context.Background(), "", domain.PageType("garage"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
