package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"bamazon/internal/domain"
	"bamazon/internal/usecase"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ CatalogServiceServer = (*CatalogHandler)(nil)

type CatalogHandler struct {
	catalog    usecase.CatalogUseCase
	purchase   usecase.PurchaseUseCase
	department usecase.DepartmentUseCase
	log        *logrus.Logger
}

func NewCatalogHandler(catalog usecase.CatalogUseCase, purchase usecase.PurchaseUseCase, department usecase.DepartmentUseCase, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:    catalog,
		purchase:   purchase,
		department: department,
		log:        logger,
	}
}

// toStruct converts any JSON-encodable value into a Struct document.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

// withOutcome attaches outcome to a status error as a Struct detail so clients
// can recover the full result of a rejected call.
func withOutcome(err error, outcome any) error {
	detail, encErr := toStruct(outcome)
	if encErr != nil {
		return err
	}
	st, detailErr := status.Convert(err).WithDetails(detail)
	if detailErr != nil {
		return err
	}
	return st.Err()
}

func intField(req *structpb.Struct, name string) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "missing field %q", name)
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be a number", name)
	}
	f := n.NumberValue
	if f != math.Trunc(f) || math.Abs(f) > domain.MaxSafeInteger {
		return 0, status.Errorf(codes.InvalidArgument, "field %q must be an integer", name)
	}
	return int(f), nil
}

func (h *CatalogHandler) ListProducts(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	h.log.Info("gRPC Handler: Received ListProducts request")
	products, err := h.catalog.ListProducts(ctx)
	if err != nil {
		h.log.Errorf("gRPC Handler: ListProducts use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(map[string]any{"products": products})
}

func (h *CatalogHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := intField(req, "id")
	if err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received GetProduct request for ID: %d", id)

	product, err := h.catalog.GetProduct(ctx, id)
	if err != nil {
		h.log.Warnf("gRPC Handler: GetProduct use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(product)
}

func (h *CatalogHandler) Purchase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	productID, err := intField(req, "product_id")
	if err != nil {
		return nil, err
	}
	quantity, err := intField(req, "quantity")
	if err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received Purchase request for ProductID: %d, Quantity: %d", productID, quantity)

	outcome, err := h.purchase.Purchase(ctx, productID, quantity)
	if err != nil {
		h.log.Warnf("gRPC Handler: Purchase rejected for ProductID %d: %v", productID, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	if err := mapPurchaseOutcomeToGrpcStatus(outcome); err != nil {
		h.log.Warnf("gRPC Handler: Purchase of ProductID %d not completed: %s", productID, outcome.Status)
		return nil, withOutcome(err, outcome)
	}

	h.log.Infof("gRPC Handler: Purchase completed for ProductID %d, charged %s", productID, outcome.TotalCharged.StringFixed(2))
	return toStruct(outcome)
}

func (h *CatalogHandler) ListDepartments(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	h.log.Info("gRPC Handler: Received ListDepartments request")
	names, err := h.department.ListDepartmentNames(ctx)
	if err != nil {
		h.log.Errorf("gRPC Handler: ListDepartments use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(map[string]any{"departments": names})
}

func (h *CatalogHandler) RegisterDepartment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	nameValue, ok := req.GetFields()["department_name"]
	if !ok {
		return nil, status.Error(codes.InvalidArgument, `missing field "department_name"`)
	}
	costValue, ok := req.GetFields()["over_head_costs"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, `field "over_head_costs" must be a number`)
	}
	name := nameValue.GetStringValue()
	h.log.Infof("gRPC Handler: Received RegisterDepartment request for Name: %s", name)

	outcome, err := h.department.RegisterDepartment(ctx, name, costValue.NumberValue)
	if err != nil {
		h.log.Warnf("gRPC Handler: RegisterDepartment use case error for Name %s: %v", name, err)
		if outcome.Status == "" {
			return nil, mapDomainErrorToGrpcStatus(err)
		}
	}
	if err := mapRegistrationOutcomeToGrpcStatus(outcome); err != nil {
		h.log.Warnf("gRPC Handler: RegisterDepartment rejected for Name %s: %s", name, outcome.Status)
		return nil, withOutcome(err, outcome)
	}
	return toStruct(outcome.Department)
}

func (h *CatalogHandler) DepartmentReport(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	h.log.Info("gRPC Handler: Received DepartmentReport request")
	report, err := h.department.DepartmentReport(ctx)
	if err != nil {
		h.log.Errorf("gRPC Handler: DepartmentReport use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}
	return toStruct(map[string]any{"departments": report})
}

func mapDomainErrorToGrpcStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrProductNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, fmt.Sprintf("internal error: %v", err))
	}
}

func mapPurchaseOutcomeToGrpcStatus(outcome domain.PurchaseOutcome) error {
	switch outcome.Status {
	case domain.PurchaseSuccess:
		return nil
	case domain.PurchaseInsufficientStock:
		return status.Error(codes.FailedPrecondition, outcome.Message())
	case domain.PurchaseTransactionFailed:
		return status.Error(codes.Aborted, outcome.Message())
	case domain.PurchaseStoreUnavailable:
		if outcome.Err != nil && !errors.Is(outcome.Err, domain.ErrStoreUnavailable) {
			return mapDomainErrorToGrpcStatus(outcome.Err)
		}
		return status.Error(codes.Unavailable, outcome.Message())
	default:
		return status.Errorf(codes.Internal, "unknown purchase outcome %q", outcome.Status)
	}
}

func mapRegistrationOutcomeToGrpcStatus(outcome domain.RegistrationOutcome) error {
	switch outcome.Status {
	case domain.RegistrationSuccess:
		return nil
	case domain.RegistrationInvalidInput:
		return status.Error(codes.InvalidArgument, outcome.Message())
	case domain.RegistrationDuplicateName:
		return status.Error(codes.AlreadyExists, outcome.Message())
	case domain.RegistrationRaceLost:
		return status.Error(codes.Aborted, outcome.Message())
	case domain.RegistrationStoreUnavailable:
		return status.Error(codes.Unavailable, outcome.Message())
	default:
		return status.Errorf(codes.Internal, "unknown registration outcome %q", outcome.Status)
	}
}
