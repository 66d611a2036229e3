package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bamazon/internal/domain"
	"bamazon/internal/usecase"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	_ usecase.CatalogUseCase    = (*CatalogClient)(nil)
	_ usecase.PurchaseUseCase   = (*CatalogClient)(nil)
	_ usecase.DepartmentUseCase = (*CatalogClient)(nil)
)

// CatalogClient calls CatalogService and decodes replies into domain types.
// It satisfies the use case interfaces, so callers can swap a local store for
// a running server without changing how results are handled.
type CatalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

func (c *CatalogClient) invoke(ctx context.Context, method string, req map[string]any, out any) error {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	reply := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, reply); err != nil {
		return err
	}
	return decodeStruct(reply, out)
}

func decodeStruct(s *structpb.Struct, out any) error {
	b, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("decoding reply: %w", err)
	}
	return json.Unmarshal(b, out)
}

// domainError wraps a status error with the domain error its code stands for.
func domainError(err error) error {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	case codes.NotFound:
		return fmt.Errorf("%w: %w", domain.ErrProductNotFound, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	default:
		return err
	}
}

// outcomeDetail decodes the outcome a server attached to a rejected call.
func outcomeDetail(err error, out any) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	for _, d := range st.Details() {
		if s, ok := d.(*structpb.Struct); ok {
			return decodeStruct(s, out) == nil
		}
	}
	return false
}

func (c *CatalogClient) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var reply struct {
		Products []domain.Product `json:"products"`
	}
	if err := c.invoke(ctx, "ListProducts", nil, &reply); err != nil {
		return nil, domainError(err)
	}
	return reply.Products, nil
}

func (c *CatalogClient) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	var product domain.Product
	if err := c.invoke(ctx, "GetProduct", map[string]any{"id": id}, &product); err != nil {
		return nil, domainError(err)
	}
	return &product, nil
}

// Healthy reports whether the server answers a catalog read.
func (c *CatalogClient) Healthy(ctx context.Context) error {
	_, err := c.ListDepartmentNames(ctx)
	return err
}

func (c *CatalogClient) Purchase(ctx context.Context, productID, quantity int) (domain.PurchaseOutcome, error) {
	var outcome domain.PurchaseOutcome
	err := c.invoke(ctx, "Purchase", map[string]any{"product_id": productID, "quantity": quantity}, &outcome)
	if err == nil {
		return outcome, nil
	}
	if outcomeDetail(err, &outcome) {
		if outcome.Status == domain.PurchaseStoreUnavailable {
			outcome.Err = domainError(err)
		}
		return outcome, nil
	}

	err = domainError(err)
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrProductNotFound) {
		return domain.PurchaseOutcome{}, err
	}
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
	}
	return domain.PurchaseOutcome{
		Status:    domain.PurchaseStoreUnavailable,
		ProductID: productID,
		Quantity:  quantity,
		Err:       err,
	}, nil
}

func (c *CatalogClient) ListDepartmentNames(ctx context.Context) ([]string, error) {
	var reply struct {
		Departments []string `json:"departments"`
	}
	if err := c.invoke(ctx, "ListDepartments", nil, &reply); err != nil {
		return nil, domainError(err)
	}
	return reply.Departments, nil
}

// RegisterDepartment follows the local contract: invalid input comes back as
// both an outcome and an error wrapping domain.ErrInvalidInput.
func (c *CatalogClient) RegisterDepartment(ctx context.Context, name string, overheadCost float64) (domain.RegistrationOutcome, error) {
	var dept domain.Department
	err := c.invoke(ctx, "RegisterDepartment", map[string]any{"department_name": name, "over_head_costs": overheadCost}, &dept)
	if err == nil {
		return domain.RegistrationOutcome{Status: domain.RegistrationSuccess, Department: &dept}, nil
	}

	var outcome domain.RegistrationOutcome
	if !outcomeDetail(err, &outcome) {
		outcome = domain.RegistrationOutcome{Status: domain.RegistrationStoreUnavailable}
		if status.Code(err) == codes.InvalidArgument {
			outcome = domain.RegistrationOutcome{Status: domain.RegistrationInvalidInput, Reason: status.Convert(err).Message()}
		}
	}

	err = domainError(err)
	switch outcome.Status {
	case domain.RegistrationInvalidInput:
		outcome.Err = err
		return outcome, err
	case domain.RegistrationStoreUnavailable:
		if !errors.Is(err, domain.ErrStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
		}
		outcome.Err = err
	}
	return outcome, nil
}

func (c *CatalogClient) DepartmentReport(ctx context.Context) ([]domain.DepartmentProfitRow, error) {
	var reply struct {
		Departments []domain.DepartmentProfitRow `json:"departments"`
	}
	if err := c.invoke(ctx, "DepartmentReport", nil, &reply); err != nil {
		return nil, domainError(err)
	}
	return reply.Departments, nil
}
