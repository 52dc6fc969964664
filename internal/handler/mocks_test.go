package handler

import (
	"context"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, model.Pagination, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, model.Pagination{}, args.Error(2)
	}
	return args.Get(0).([]model.Product), args.Get(1).(model.Pagination), args.Error(2)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, req *model.ProductRequest) (*model.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) order(args mock.Arguments) (*model.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *model.OrderRequest) (*model.Order, error) {
	return m.order(m.Called(ctx, userID, req))
}

func (m *MockOrderService) GetByID(ctx context.Context, caller auth.Principal, id uuid.UUID) (*model.Order, error) {
	return m.order(m.Called(ctx, caller, id))
}

func (m *MockOrderService) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, model.Pagination, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, model.Pagination{}, args.Error(2)
	}
	return args.Get(0).([]model.Order), args.Get(1).(model.Pagination), args.Error(2)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, note string) (*model.Order, error) {
	return m.order(m.Called(ctx, id, status, note))
}

func (m *MockOrderService) Cancel(ctx context.Context, caller auth.Principal, id uuid.UUID, note string) (*model.Order, error) {
	return m.order(m.Called(ctx, caller, id, note))
}

func (m *MockOrderService) Refund(ctx context.Context, id uuid.UUID, note string) (*model.Order, error) {
	return m.order(m.Called(ctx, id, note))
}

func (m *MockOrderService) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) (*model.Order, error) {
	return m.order(m.Called(ctx, id, status))
}

// MockCouponService is a mock implementation of CouponService.
type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) coupon(args mock.Arguments) (*model.Coupon, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponService) Check(ctx context.Context, req *model.CouponCheckRequest) (*model.CouponCheckResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CouponCheckResponse), args.Error(1)
}

func (m *MockCouponService) Create(ctx context.Context, req *model.CouponRequest) (*model.Coupon, error) {
	return m.coupon(m.Called(ctx, req))
}

func (m *MockCouponService) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	return m.coupon(m.Called(ctx, id))
}

func (m *MockCouponService) List(ctx context.Context, limit, offset int) ([]model.Coupon, model.Pagination, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, model.Pagination{}, args.Error(2)
	}
	return args.Get(0).([]model.Coupon), args.Get(1).(model.Pagination), args.Error(2)
}

func (m *MockCouponService) Update(ctx context.Context, id uuid.UUID, req *model.CouponRequest) (*model.Coupon, error) {
	return m.coupon(m.Called(ctx, id, req))
}

func (m *MockCouponService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockAddressService is a mock implementation of AddressService.
type MockAddressService struct {
	mock.Mock
}

func (m *MockAddressService) address(args mock.Arguments) (*model.Address, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Address), args.Error(1)
}

func (m *MockAddressService) List(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Address), args.Error(1)
}

func (m *MockAddressService) Create(ctx context.Context, userID uuid.UUID, req *model.AddressRequest) (*model.Address, error) {
	return m.address(m.Called(ctx, userID, req))
}

func (m *MockAddressService) Update(ctx context.Context, userID, id uuid.UUID, req *model.AddressRequest) (*model.Address, error) {
	return m.address(m.Called(ctx, userID, id, req))
}

func (m *MockAddressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return m.Called(ctx, userID, id).Error(0)
}

func (m *MockAddressService) SetDefault(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	return m.address(m.Called(ctx, userID, id))
}

// MockUserService is a mock implementation of UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) user(args mock.Arguments) (*model.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *MockUserService) List(ctx context.Context, limit, offset int) ([]model.User, model.Pagination, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, model.Pagination{}, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(model.Pagination), args.Error(2)
}

func (m *MockUserService) Create(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	return m.user(m.Called(ctx, req))
}

func (m *MockUserService) UpdateRole(ctx context.Context, actor auth.Principal, id uuid.UUID, role model.Role) (*model.User, error) {
	return m.user(m.Called(ctx, actor, id, role))
}

func (m *MockUserService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*model.User, error) {
	return m.user(m.Called(ctx, id, active))
}

// MockDashboardService is a mock implementation of DashboardService.
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Stats(ctx context.Context, filter model.TimeFilter, includeEmpty bool) (*model.DashboardStats, error) {
	args := m.Called(ctx, filter, includeEmpty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DashboardStats), args.Error(1)
}
