package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var orderDay = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

type orderFixture struct {
	orders   *MockOrderRepository
	products *MockProductRepository
	coupons  *MockEvaluator
	svc      *orderService
}

func newOrderFixture() *orderFixture {
	f := &orderFixture{
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
		coupons:  new(MockEvaluator),
	}
	f.svc = NewOrderService(f.orders, f.products, f.coupons, zerolog.Nop()).(*orderService)
	f.svc.now = func() time.Time { return orderDay }
	return f
}

func shipping() model.ShippingAddress {
	return model.ShippingAddress{
		RecipientName: "Ayşe Yılmaz",
		Phone:         "+90 555 000 0000",
		Address:       "Bağdat Cd. 1",
		City:          "Istanbul",
	}
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	f := newOrderFixture()
	userID := uuid.New()
	mouse := &model.Product{ID: uuid.New(), Name: "Mouse", Price: 100, Images: []string{"https://cdn.example.com/mouse.png"}}
	cable := &model.Product{ID: uuid.New(), Name: "Cable", Price: 12.5}
	code := "save10"
	total := 212.5 - 21.25 + 9.99

	tx := committingTx()
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.products.On("DecrementStock", mock.Anything, tx, mouse.ID, 2).Return(mouse, nil)
	f.products.On("DecrementStock", mock.Anything, tx, cable.ID, 1).Return(cable, nil)
	f.coupons.On("Redeem", mock.Anything, tx, code, 212.5).
		Return(&model.Coupon{Code: "SAVE10"}, 21.25, nil)
	f.orders.On("NextOrderNumber", mock.Anything, tx, orderDay).Return(int64(5), nil)
	f.orders.On("CreateOrder", mock.Anything, tx, mock.AnythingOfType("*model.Order")).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), userID, &model.OrderRequest{
		Items: []model.OrderItemRequest{
			{ProductID: mouse.ID, Quantity: 2},
			{ProductID: cable.ID, Quantity: 1},
		},
		ShippingAddress: shipping(),
		PaymentMethod:   model.PaymentCard,
		ShippingCost:    9.99,
		TotalAmount:     &total,
		CouponCode:      &code,
	})
	require.NoError(t, err)

	assert.Equal(t, "240601-0005", order.OrderNumber)
	assert.Equal(t, userID, order.UserID)
	assert.Equal(t, model.StatusProcessing, order.Status)
	assert.Equal(t, model.PaymentPending, order.PaymentStatus)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, model.StatusHistoryEntry{Status: model.StatusProcessing, Note: "Order created", Timestamp: orderDay}, order.StatusHistory[0])
	assert.Equal(t, 212.5, order.Subtotal)
	assert.Equal(t, 21.25, order.Discount)
	assert.Equal(t, 201.24, order.TotalAmount)
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "SAVE10", *order.CouponCode)
	assert.Equal(t, model.DefaultCountry, order.ShippingAddress.Country)

	require.Len(t, order.Items, 2)
	assert.Equal(t, "Mouse", order.Items[0].Name)
	assert.Equal(t, "https://cdn.example.com/mouse.png", order.Items[0].Image)
	assert.Equal(t, 2, order.Items[0].Quantity)

	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
	f.orders.AssertExpectations(t)
	f.products.AssertExpectations(t)
}

func TestOrderService_CreateOrder_StockExhaustedBySecondOrder(t *testing.T) {
	f := newOrderFixture()
	productID := uuid.New()
	product := &model.Product{ID: productID, Name: "Lamp", Price: 40, Stock: 0}
	shortage := model.NewDomainError(model.KindInvalidState, model.ErrCodeInsufficientStock,
		"Insufficient stock for Lamp: 0 available, 1 requested")

	first := committingTx()
	second := rollingBackTx()
	f.orders.On("BeginTx", mock.Anything).Return(first, nil).Once()
	f.orders.On("BeginTx", mock.Anything).Return(second, nil).Once()
	f.products.On("DecrementStock", mock.Anything, first, productID, 3).Return(product, nil)
	f.products.On("DecrementStock", mock.Anything, second, productID, 1).Return(nil, shortage)
	f.orders.On("NextOrderNumber", mock.Anything, first, orderDay).Return(int64(1), nil)
	f.orders.On("CreateOrder", mock.Anything, first, mock.Anything).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), uuid.New(), &model.OrderRequest{
		Items:           []model.OrderItemRequest{{ProductID: productID, Quantity: 3}},
		ShippingAddress: shipping(),
		PaymentMethod:   model.PaymentCashOnDelivery,
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusProcessing, order.Status)

	_, err = f.svc.CreateOrder(context.Background(), uuid.New(), &model.OrderRequest{
		Items:           []model.OrderItemRequest{{ProductID: productID, Quantity: 1}},
		ShippingAddress: shipping(),
		PaymentMethod:   model.PaymentCashOnDelivery,
	})
	require.Error(t, err)
	assert.True(t, model.IsKind(err, model.KindInvalidState))

	assert.True(t, second.rolledBack)
	assert.False(t, second.committed)
	f.orders.AssertNumberOfCalls(t, "CreateOrder", 1)
}

func TestOrderService_CreateOrder_RollsBackWholeOrder(t *testing.T) {
	f := newOrderFixture()
	inStock := &model.Product{ID: uuid.New(), Name: "Pen", Price: 2}
	missing := uuid.New()

	tx := rollingBackTx()
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.products.On("DecrementStock", mock.Anything, tx, inStock.ID, 5).Return(inStock, nil)
	f.products.On("DecrementStock", mock.Anything, tx, missing, 1).Return(nil, model.ErrProductNotFound)

	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), &model.OrderRequest{
		Items: []model.OrderItemRequest{
			{ProductID: inStock.ID, Quantity: 5},
			{ProductID: missing, Quantity: 1},
		},
		ShippingAddress: shipping(),
		PaymentMethod:   model.PaymentCard,
	})
	assert.ErrorIs(t, err, model.ErrProductNotFound)

	// The first decrement happened inside the rolled back transaction.
	assert.True(t, tx.rolledBack)
	tx.AssertNotCalled(t, "Commit", mock.Anything)
	f.orders.AssertNotCalled(t, "NextOrderNumber", mock.Anything, mock.Anything, mock.Anything)
	f.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_TotalMismatch(t *testing.T) {
	f := newOrderFixture()
	product := &model.Product{ID: uuid.New(), Name: "Mug", Price: 15}
	claimed := 10.0

	tx := rollingBackTx()
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.products.On("DecrementStock", mock.Anything, tx, product.ID, 2).Return(product, nil)

	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), &model.OrderRequest{
		Items:           []model.OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: shipping(),
		PaymentMethod:   model.PaymentBankTransfer,
		TotalAmount:     &claimed,
	})

	de, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeTotalMismatch, de.Code)
	assert.Equal(t, model.KindValidation, de.Kind)
	assert.True(t, tx.rolledBack)
}

func TestOrderService_CreateOrder_TotalWithinTolerance(t *testing.T) {
	f := newOrderFixture()
	product := &model.Product{ID: uuid.New(), Name: "Mug", Price: 15}
	claimed := 30.01

	tx := committingTx()
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.products.On("DecrementStock", mock.Anything, tx, product.ID, 2).Return(product, nil)
	f.orders.On("NextOrderNumber", mock.Anything, tx, orderDay).Return(int64(12), nil)
	f.orders.On("CreateOrder", mock.Anything, tx, mock.Anything).Return(nil)

	order, err := f.svc.CreateOrder(context.Background(), uuid.New(), &model.OrderRequest{
		Items:           []model.OrderItemRequest{{ProductID: product.ID, Quantity: 2}},
		ShippingAddress: shipping(),
		PaymentMethod:   model.PaymentBankTransfer,
		TotalAmount:     &claimed,
	})
	require.NoError(t, err)
	assert.Equal(t, 30.0, order.TotalAmount)
	assert.Equal(t, "240601-0012", order.OrderNumber)
}

func TestOrderService_CreateOrder_InvalidCoupon(t *testing.T) {
	f := newOrderFixture()
	product := &model.Product{ID: uuid.New(), Name: "Mug", Price: 15}
	code := "EXPIRED"
	invalid := model.NewDomainError(model.KindInvalidState, model.ErrCodeCouponInvalid, "Coupon has expired")

	tx := rollingBackTx()
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.products.On("DecrementStock", mock.Anything, tx, product.ID, 1).Return(product, nil)
	f.coupons.On("Redeem", mock.Anything, tx, code, 15.0).Return(nil, 0.0, invalid)

	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), &model.OrderRequest{
		Items:           []model.OrderItemRequest{{ProductID: product.ID, Quantity: 1}},
		ShippingAddress: shipping(),
		PaymentMethod:   model.PaymentCard,
		CouponCode:      &code,
	})
	assert.ErrorIs(t, err, invalid)
	assert.True(t, tx.rolledBack)
}

func TestOrderService_CreateOrder_BeginTxFails(t *testing.T) {
	f := newOrderFixture()
	f.orders.On("BeginTx", mock.Anything).Return(nil, errors.New("pool closed"))

	_, err := f.svc.CreateOrder(context.Background(), uuid.New(), &model.OrderRequest{
		Items:           []model.OrderItemRequest{{ProductID: uuid.New(), Quantity: 1}},
		ShippingAddress: shipping(),
		PaymentMethod:   model.PaymentCard,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
}

func placedOrder(userID uuid.UUID, status model.OrderStatus) *model.Order {
	orderID := uuid.New()
	return &model.Order{
		ID:            orderID,
		OrderNumber:   "240601-0001",
		UserID:        userID,
		Status:        status,
		PaymentStatus: model.PaymentPending,
		Items: []model.OrderItem{
			{OrderID: orderID, ProductID: uuid.New(), Name: "Lamp", Price: 40, Quantity: 2},
			{OrderID: orderID, ProductID: uuid.New(), Name: "Bulb", Price: 3, Quantity: 4},
		},
		StatusHistory: []model.StatusHistoryEntry{{Status: status, Note: "Order created"}},
	}
}

func TestOrderService_GetByID(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	order := placedOrder(owner, model.StatusProcessing)

	tests := []struct {
		name    string
		caller  auth.Principal
		wantErr error
	}{
		{"owner", auth.Principal{UserID: owner, Role: model.RoleUser}, nil},
		{"admin", auth.Principal{UserID: uuid.New(), Role: model.RoleAdmin}, nil},
		{"someone else", auth.Principal{UserID: uuid.New(), Role: model.RoleUser}, model.ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture()
			f.orders.On("GetByID", ctx, order.ID).Return(order, nil)

			got, err := f.svc.GetByID(ctx, tt.caller, order.ID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, order.ID, got.ID)
		})
	}

	t.Run("missing", func(t *testing.T) {
		f := newOrderFixture()
		id := uuid.New()
		f.orders.On("GetByID", ctx, id).Return(nil, nil)

		_, err := f.svc.GetByID(ctx, auth.Principal{UserID: owner, Role: model.RoleAdmin}, id)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestOrderService_List(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()
	userID := uuid.New()

	f.orders.On("List", ctx, model.OrderFilter{UserID: &userID, Limit: 10}).
		Return([]model.Order{*placedOrder(userID, model.StatusPending)}, 11, nil)

	orders, pagination, err := f.svc.List(ctx, model.OrderFilter{UserID: &userID, Limit: 0, Offset: -3})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, model.Pagination{Total: 11, Limit: 10, Offset: 0}, pagination)

	_, _, err = f.svc.List(ctx, model.OrderFilter{Status: "completed"})
	assert.True(t, model.IsKind(err, model.KindValidation))
}

func TestOrderService_UpdateStatus(t *testing.T) {
	t.Run("forward transition", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(uuid.New(), model.StatusProcessing)

		tx := committingTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)
		f.orders.On("UpdateState", mock.Anything, tx, order, mock.MatchedBy(func(e *model.StatusHistoryEntry) bool {
			return e != nil && e.Status == model.StatusShipped && e.Note == "Handed to courier"
		})).Return(nil)

		got, err := f.svc.UpdateStatus(context.Background(), order.ID, model.StatusShipped, "Handed to courier")
		require.NoError(t, err)
		assert.Equal(t, model.StatusShipped, got.Status)
		assert.Len(t, got.StatusHistory, 2)
		f.orders.AssertExpectations(t)
	})

	t.Run("backward transition rejected", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(uuid.New(), model.StatusShipped)

		tx := rollingBackTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)

		_, err := f.svc.UpdateStatus(context.Background(), order.ID, model.StatusPending, "")
		de, ok := model.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, model.ErrCodeInvalidTransition, de.Code)
		assert.True(t, tx.rolledBack)
		f.orders.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cancelled via status restocks", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(uuid.New(), model.StatusShipped)

		tx := committingTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)
		f.products.On("RestoreStock", mock.Anything, tx, order.Items[0].ProductID, 2).Return(true, nil)
		f.products.On("RestoreStock", mock.Anything, tx, order.Items[1].ProductID, 4).Return(true, nil)
		f.orders.On("UpdateState", mock.Anything, tx, order, mock.Anything).Return(nil)

		got, err := f.svc.UpdateStatus(context.Background(), order.ID, model.StatusCancelled, "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		assert.Equal(t, "Order cancelled", got.StatusHistory[len(got.StatusHistory)-1].Note)
		f.products.AssertExpectations(t)
	})

	t.Run("missing order", func(t *testing.T) {
		f := newOrderFixture()
		id := uuid.New()

		tx := rollingBackTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, id).Return(nil, nil)

		_, err := f.svc.UpdateStatus(context.Background(), id, model.StatusShipped, "")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestOrderService_Cancel(t *testing.T) {
	owner := uuid.New()
	customer := auth.Principal{UserID: owner, Role: model.RoleUser}

	t.Run("owner cancels processing order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(owner, model.StatusProcessing)

		tx := committingTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)
		f.products.On("RestoreStock", mock.Anything, tx, order.Items[0].ProductID, 2).Return(true, nil)
		// The second product was deleted after the order was placed.
		f.products.On("RestoreStock", mock.Anything, tx, order.Items[1].ProductID, 4).Return(false, nil)
		f.orders.On("UpdateState", mock.Anything, tx, order, mock.Anything).Return(nil)

		got, err := f.svc.Cancel(context.Background(), customer, order.ID, "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		assert.Equal(t, "Order cancelled", got.StatusHistory[1].Note)
		assert.True(t, tx.committed)
	})

	t.Run("owner cannot cancel shipped order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(owner, model.StatusShipped)

		tx := rollingBackTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)

		_, err := f.svc.Cancel(context.Background(), customer, order.ID, "")
		assert.True(t, model.IsKind(err, model.KindInvalidState))
		f.products.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin cancels shipped order", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(owner, model.StatusShipped)

		tx := committingTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)
		f.products.On("RestoreStock", mock.Anything, tx, mock.Anything, mock.Anything).Return(true, nil)
		f.orders.On("UpdateState", mock.Anything, tx, order, mock.Anything).Return(nil)

		admin := auth.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
		got, err := f.svc.Cancel(context.Background(), admin, order.ID, "Customer called")
		require.NoError(t, err)
		assert.Equal(t, "Customer called", got.StatusHistory[1].Note)
	})

	t.Run("other user sees not found", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(owner, model.StatusPending)

		tx := rollingBackTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)

		stranger := auth.Principal{UserID: uuid.New(), Role: model.RoleUser}
		_, err := f.svc.Cancel(context.Background(), stranger, order.ID, "")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("already cancelled", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(owner, model.StatusCancelled)

		tx := rollingBackTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)

		admin := auth.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
		_, err := f.svc.Cancel(context.Background(), admin, order.ID, "")
		assert.True(t, model.IsKind(err, model.KindInvalidState))
	})
}

func TestOrderService_Refund(t *testing.T) {
	t.Run("live order is cancelled and restocked", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(uuid.New(), model.StatusDelivered)
		order.PaymentStatus = model.PaymentPaid

		tx := committingTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)
		f.products.On("RestoreStock", mock.Anything, tx, mock.Anything, mock.Anything).Return(true, nil)
		f.orders.On("UpdateState", mock.Anything, tx, order, mock.Anything).Return(nil)

		got, err := f.svc.Refund(context.Background(), order.ID, "")
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)
		assert.Equal(t, "Order refunded", got.StatusHistory[len(got.StatusHistory)-1].Note)
		f.products.AssertNumberOfCalls(t, "RestoreStock", 2)
	})

	t.Run("cancelled order is not restocked twice", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(uuid.New(), model.StatusCancelled)

		tx := committingTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)
		f.orders.On("UpdateState", mock.Anything, tx, order, mock.Anything).Return(nil)

		got, err := f.svc.Refund(context.Background(), order.ID, "Goodwill")
		require.NoError(t, err)
		assert.Equal(t, model.PaymentRefunded, got.PaymentStatus)
		f.products.AssertNotCalled(t, "RestoreStock", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already refunded", func(t *testing.T) {
		f := newOrderFixture()
		order := placedOrder(uuid.New(), model.StatusCancelled)
		order.PaymentStatus = model.PaymentRefunded

		tx := rollingBackTx()
		f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
		f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)

		_, err := f.svc.Refund(context.Background(), order.ID, "")
		assert.ErrorIs(t, err, model.ErrAlreadyRefunded)
	})
}

func TestOrderService_UpdatePaymentStatus(t *testing.T) {
	f := newOrderFixture()
	order := placedOrder(uuid.New(), model.StatusProcessing)

	tx := committingTx()
	f.orders.On("BeginTx", mock.Anything).Return(tx, nil)
	f.orders.On("GetForUpdate", mock.Anything, tx, order.ID).Return(order, nil)
	f.orders.On("UpdateState", mock.Anything, tx, order, (*model.StatusHistoryEntry)(nil)).Return(nil)

	got, err := f.svc.UpdatePaymentStatus(context.Background(), order.ID, model.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Len(t, got.StatusHistory, 1)
	f.orders.AssertExpectations(t)
}
