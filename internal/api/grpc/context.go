package grpc

import (
	"context"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"alumni-registry-backend/internal/domain"
)

// Metadata keys set by the auth interceptor. Client-supplied values are overwritten.
const (
	MetadataAccountID = "account-id"
	MetadataEmail     = "account-email"
	MetadataRole      = "account-role"
	MetadataAlumniID  = "alumni-id"
)

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

// SessionFromContext rebuilds the caller's session from the gRPC metadata
// injected by the auth interceptor.
func SessionFromContext(ctx context.Context) (*domain.AuthSession, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Errorf(codes.Unauthenticated, "metadata is not provided")
	}

	raw := first(md, MetadataAccountID)
	if raw == "" {
		return nil, status.Errorf(codes.Unauthenticated, "account id is not provided in metadata")
	}
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid account id format: %v", err)
	}

	return &domain.AuthSession{
		AccountID: int32(id),
		Email:     first(md, MetadataEmail),
		AlumniID:  first(md, MetadataAlumniID),
		Role:      domain.AccountRole(first(md, MetadataRole)),
	}, nil
}
