package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"

	"alumni-registry-backend/internal/config"
	"alumni-registry-backend/internal/service"
)

// AdminReviewServer is the server API for the admin review service.
type AdminReviewServer interface {
	ListQueue(context.Context, *ListQueueRequest) (*ListQueueResponse, error)
	ApproveItem(context.Context, *DecisionRequest) (*DecisionResponse, error)
	RejectItem(context.Context, *DecisionRequest) (*DecisionResponse, error)
	DeleteQueueItems(context.Context, *DeleteQueueItemsRequest) (*DeleteResponse, error)
	DeleteAlumni(context.Context, *DeleteAlumniRequest) (*DeleteResponse, error)
	GetStats(context.Context, *GetStatsRequest) (*GetStatsResponse, error)
	RepairIntakes(context.Context, *RepairIntakesRequest) (*RepairIntakesResponse, error)
	ListEmailLogs(context.Context, *ListEmailLogsRequest) (*ListEmailLogsResponse, error)
}

type AdminHandler struct {
	adminSvc service.AdminReviewService
}

func NewAdminHandler(adminSvc service.AdminReviewService) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc}
}

func (h *AdminHandler) ListQueue(ctx context.Context, req *ListQueueRequest) (*ListQueueResponse, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	page, err := h.adminSvc.ListQueue(ctx, session, service.QueueQuery{
		Statuses:  mapStatuses(req.Statuses),
		Search:    req.Search,
		SortBy:    req.SortBy,
		Ascending: req.Ascending,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListQueueResponse{Items: page.Items, Total: page.Total}, nil
}

func (h *AdminHandler) ApproveItem(ctx context.Context, req *DecisionRequest) (*DecisionResponse, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.adminSvc.Approve(ctx, session, req.QueueID)
	if err != nil {
		return nil, toStatus(err)
	}
	return MapDecisionResult(res), nil
}

func (h *AdminHandler) RejectItem(ctx context.Context, req *DecisionRequest) (*DecisionResponse, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	res, err := h.adminSvc.Reject(ctx, session, req.QueueID)
	if err != nil {
		return nil, toStatus(err)
	}
	return MapDecisionResult(res), nil
}

func (h *AdminHandler) DeleteQueueItems(ctx context.Context, req *DeleteQueueItemsRequest) (*DeleteResponse, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.adminSvc.DeleteQueueItems(ctx, session, req.IDs)
	if err != nil {
		return nil, toStatus(err)
	}
	return &DeleteResponse{Deleted: n}, nil
}

func (h *AdminHandler) DeleteAlumni(ctx context.Context, req *DeleteAlumniRequest) (*DeleteResponse, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	n, err := h.adminSvc.DeleteAlumni(ctx, session, req.AlumniIDs)
	if err != nil {
		return nil, toStatus(err)
	}
	return &DeleteResponse{Deleted: n}, nil
}

func (h *AdminHandler) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := h.adminSvc.Stats(ctx, session)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetStatsResponse{Stats: *stats}, nil
}

func (h *AdminHandler) RepairIntakes(ctx context.Context, req *RepairIntakesRequest) (*RepairIntakesResponse, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	report, err := h.adminSvc.RepairIntakes(ctx, session, time.Duration(req.OlderThanSeconds)*time.Second)
	if err != nil {
		return nil, toStatus(err)
	}
	return &RepairIntakesResponse{Report: *report}, nil
}

func (h *AdminHandler) ListEmailLogs(ctx context.Context, req *ListEmailLogsRequest) (*ListEmailLogsResponse, error) {
	session, err := SessionFromContext(ctx)
	if err != nil {
		return nil, err
	}
	logs, total, err := h.adminSvc.ListEmailLogs(ctx, session, req.Limit, req.Offset)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListEmailLogsResponse{Logs: logs, Total: total}, nil
}

// RegisterAdminReviewServer registers srv on s.
func RegisterAdminReviewServer(s grpc.ServiceRegistrar, srv AdminReviewServer) {
	s.RegisterService(&AdminReviewServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(AdminReviewServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AdminReviewServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + config.AdminReviewServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(AdminReviewServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AdminReviewServiceDesc describes the service for grpc.Server registration.
// Messages are JSON encoded; see CodecName.
var AdminReviewServiceDesc = grpc.ServiceDesc{
	ServiceName: config.AdminReviewServiceName,
	HandlerType: (*AdminReviewServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ListQueue", AdminReviewServer.ListQueue),
		unaryHandler("ApproveItem", AdminReviewServer.ApproveItem),
		unaryHandler("RejectItem", AdminReviewServer.RejectItem),
		unaryHandler("DeleteQueueItems", AdminReviewServer.DeleteQueueItems),
		unaryHandler("DeleteAlumni", AdminReviewServer.DeleteAlumni),
		unaryHandler("GetStats", AdminReviewServer.GetStats),
		unaryHandler("RepairIntakes", AdminReviewServer.RepairIntakes),
		unaryHandler("ListEmailLogs", AdminReviewServer.ListEmailLogs),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alumni/registration/v1/admin_review.proto",
}

// AdminReviewClient calls the service over a JSON-codec connection.
type AdminReviewClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminReviewClient(cc grpc.ClientConnInterface) *AdminReviewClient {
	return &AdminReviewClient{cc: cc}
}

func (c *AdminReviewClient) invoke(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+config.AdminReviewServiceName+"/"+method, in, out, opts...)
}

func (c *AdminReviewClient) ListQueue(ctx context.Context, in *ListQueueRequest, opts ...grpc.CallOption) (*ListQueueResponse, error) {
	out := new(ListQueueResponse)
	return out, c.invoke(ctx, "ListQueue", in, out, opts...)
}

func (c *AdminReviewClient) ApproveItem(ctx context.Context, in *DecisionRequest, opts ...grpc.CallOption) (*DecisionResponse, error) {
	out := new(DecisionResponse)
	return out, c.invoke(ctx, "ApproveItem", in, out, opts...)
}

func (c *AdminReviewClient) RejectItem(ctx context.Context, in *DecisionRequest, opts ...grpc.CallOption) (*DecisionResponse, error) {
	out := new(DecisionResponse)
	return out, c.invoke(ctx, "RejectItem", in, out, opts...)
}

func (c *AdminReviewClient) GetStats(ctx context.Context, in *GetStatsRequest, opts ...grpc.CallOption) (*GetStatsResponse, error) {
	out := new(GetStatsResponse)
	return out, c.invoke(ctx, "GetStats", in, out, opts...)
}

func (c *AdminReviewClient) RepairIntakes(ctx context.Context, in *RepairIntakesRequest, opts ...grpc.CallOption) (*RepairIntakesResponse, error) {
	out := new(RepairIntakesResponse)
	return out, c.invoke(ctx, "RepairIntakes", in, out, opts...)
}
