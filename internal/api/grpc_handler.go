package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"inventory-service/internal/domain"
)

const inventoryServiceName = "inventory.v1.InventoryService"

// InventoryServiceServer is the gRPC surface of the product store client.
// Messages are google.protobuf.Struct documents shaped like the HTTP JSON
// bodies.
type InventoryServiceServer interface {
	ListProducts(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListCategories(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ToggleFlag(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClearCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeriveView(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryMethod[Req proto.Message](name string, newReq func() Req, call func(InventoryServiceServer, context.Context, Req) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + inventoryServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(InventoryServiceServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newEmpty() *emptypb.Empty    { return new(emptypb.Empty) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

// InventoryServiceDesc describes inventory.v1.InventoryService.
var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: inventoryServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("ListProducts", newEmpty, InventoryServiceServer.ListProducts),
		unaryMethod("ListCategories", newEmpty, InventoryServiceServer.ListCategories),
		unaryMethod("ToggleFlag", newStruct, InventoryServiceServer.ToggleFlag),
		unaryMethod("ClearCart", newStruct, InventoryServiceServer.ClearCart),
		unaryMethod("DeleteProduct", newStruct, InventoryServiceServer.DeleteProduct),
		unaryMethod("DeriveView", newStruct, InventoryServiceServer.DeriveView),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/inventory.proto",
}

// RegisterInventoryServiceServer registers srv on s.
func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

// GRPCHandler implements InventoryServiceServer on top of the product service.
type GRPCHandler struct {
	products ProductService
	logger   *zap.Logger
}

// NewGRPCHandler creates a new GRPCHandler.
func NewGRPCHandler(products ProductService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{products: products, logger: logger.Named("grpc")}
}

// --- Helpers ---

// toStruct converts a JSON-encodable value into a Struct, wrapping it under
// key unless key is empty.
func toStruct(key string, v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	fields, ok := decoded.(map[string]any)
	if key != "" || !ok {
		fields = map[string]any{key: decoded}
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

func requireID(in *structpb.Struct, field string) (int64, error) {
	v, ok := in.GetFields()[field]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	n := v.GetNumberValue()
	if n <= 0 || n != float64(int64(n)) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", field)
	}
	return int64(n), nil
}

func codeForResult(result domain.Result) codes.Code {
	switch statusForResult(result, http.StatusOK) {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	default:
		return codes.Internal
	}
}

func (s *GRPCHandler) resultToStruct(method string, result domain.Result) (*structpb.Struct, error) {
	if !result.Success {
		s.logger.Warn("gRPC mutation failed", zap.String("method", method), zap.String("message", result.Message), zap.Error(result.Err))
		return nil, status.Error(codeForResult(result), result.Message)
	}
	return toStruct("", result)
}

// --- gRPC Methods Implementation ---

func (s *GRPCHandler) ListProducts(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct("products", s.products.ListProducts(ctx))
}

func (s *GRPCHandler) ListCategories(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct("categories", s.products.ListCategories(ctx))
}

// ToggleFlag expects {"id": n, "kind": "tobuy"|"incart", "current": bool}.
func (s *GRPCHandler) ToggleFlag(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(in, "id")
	if err != nil {
		return nil, err
	}
	kind, err := domain.ParseToggleKind(in.GetFields()["kind"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	current := in.GetFields()["current"].GetBoolValue()
	return s.resultToStruct("ToggleFlag", s.products.ToggleFlag(ctx, id, kind, current))
}

// ClearCart expects {"ids": [n, ...]}.
func (s *GRPCHandler) ClearCart(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	values := in.GetFields()["ids"].GetListValue().GetValues()
	ids := make([]int64, 0, len(values))
	for i, v := range values {
		n := v.GetNumberValue()
		if n <= 0 || n != float64(int64(n)) {
			return nil, status.Errorf(codes.InvalidArgument, "ids[%d] must be a positive integer", i)
		}
		ids = append(ids, int64(n))
	}
	return s.resultToStruct("ClearCart", s.products.ClearCart(ctx, ids))
}

// DeleteProduct expects {"id": n}.
func (s *GRPCHandler) DeleteProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireID(in, "id")
	if err != nil {
		return nil, err
	}
	return s.resultToStruct("DeleteProduct", s.products.DeleteProduct(ctx, id))
}

// DeriveView expects {"page": "inventory"|"shopping", "query": "..."}.
func (s *GRPCHandler) DeriveView(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pageName := in.GetFields()["page"].GetStringValue()
	if pageName == "" {
		pageName = string(domain.PageInventory)
	}
	page, err := domain.ParsePageType(pageName)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return toStruct("", s.products.View(ctx, in.GetFields()["query"].GetStringValue(), page))
}

// InventoryServiceClient calls inventory.v1.InventoryService.
type InventoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryServiceClient(cc grpc.ClientConnInterface) *InventoryServiceClient {
	return &InventoryServiceClient{cc: cc}
}

func (c *InventoryServiceClient) invoke(ctx context.Context, method string, in proto.Message, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+inventoryServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *InventoryServiceClient) ListProducts(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListProducts", &emptypb.Empty{}, opts...)
}

func (c *InventoryServiceClient) ListCategories(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListCategories", &emptypb.Empty{}, opts...)
}

func (c *InventoryServiceClient) ToggleFlag(ctx context.Context, id int64, kind domain.ToggleKind, current bool, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"id": id, "kind": kind.String(), "current": current})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "ToggleFlag", in, opts...)
}

func (c *InventoryServiceClient) ClearCart(ctx context.Context, ids []int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	list := make([]any, 0, len(ids))
	for _, id := range ids {
		list = append(list, id)
	}
	in, err := structpb.NewStruct(map[string]any{"ids": list})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "ClearCart", in, opts...)
}

func (c *InventoryServiceClient) DeleteProduct(ctx context.Context, id int64, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "DeleteProduct", in, opts...)
}

func (c *InventoryServiceClient) DeriveView(ctx context.Context, query string, page domain.PageType, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]any{"query": query, "page": string(page)})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "DeriveView", in, opts...)
}

// DecodeStruct converts a response document back into dst through JSON.
func DecodeStruct(in *structpb.Struct, dst any) error {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return fmt.Errorf("api: failed to encode struct: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("api: failed to decode struct: %w", err)
	}
	return nil
}

var _ InventoryServiceServer = (*GRPCHandler)(nil)
