package grpc

import (
	"errors"

	"github.com/dmitrijs2005/bulletin/internal/api"
	"github.com/dmitrijs2005/bulletin/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
)

// Unauthenticated failures share one message whatever the cause.
const unauthorizedMessage = "unauthorized"

// toStatus maps service errors to gRPC status errors with an ErrorInfo
// detail. Anything unrecognised becomes codes.Internal without its cause.
func toStatus(err error) error {
	var verr *common.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &verr):
		br := &errdetails.BadRequest{}
		for _, v := range verr.Violations {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       v.Field,
				Description: v.Description,
			})
		}
		return withDetails(codes.InvalidArgument, "invalid request", api.ReasonValidation, br)
	case errors.Is(err, common.ErrorValidation):
		return withDetails(codes.InvalidArgument, "invalid request", api.ReasonValidation)
	case errors.Is(err, common.ErrorConflict):
		return withDetails(codes.AlreadyExists, "already exists", api.ReasonConflict)
	case errors.Is(err, common.ErrTokenExpired):
		return withDetails(codes.Unauthenticated, unauthorizedMessage, api.ReasonTokenExpired)
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return withDetails(codes.Unauthenticated, unauthorizedMessage, api.ReasonUnauthorized)
	default:
		return withDetails(codes.Internal, "internal error", api.ReasonInternal)
	}
}

func withDetails(code codes.Code, msg, reason string, extra ...protoadapt.MessageV1) error {
	st := status.New(code, msg)
	details := append([]protoadapt.MessageV1{&errdetails.ErrorInfo{
		Reason: reason,
		Domain: common.ErrorDomain,
	}}, extra...)

	detailed, err := st.WithDetails(details...)
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
