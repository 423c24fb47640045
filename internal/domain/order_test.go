package domain

import (
	"encoding/json"
	"testing"
)

func TestParseDeliveryMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    DeliveryMethod
		wantErr bool
	}{
		{in: "on-hand", want: DeliveryOnHand},
		{in: "DRIVE_THRU", want: DeliveryDriveThru},
		{in: " Home-Delivery ", want: DeliveryHomeDelivery},
		{in: "drone", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDeliveryMethod(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDeliveryMethod_PickupAddress(t *testing.T) {
	if DeliveryOnHand.PickupAddress() == "" || DeliveryDriveThru.PickupAddress() == "" {
		t.Error("expected pickup methods to carry a store address")
	}
	if DeliveryHomeDelivery.PickupAddress() != "" {
		t.Error("expected home delivery to use the customer's address")
	}
}

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusInProgress, true},
		{OrderStatusPending, OrderStatusCanceled, true},
		{OrderStatusInProgress, OrderStatusDelivered, true},
		{OrderStatusInProgress, OrderStatusCanceled, true},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusDelivered, OrderStatusCanceled, false},
		{OrderStatusCanceled, OrderStatusPending, false},
		{OrderStatusCanceled, OrderStatusCanceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEnumJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Method DeliveryMethod `json:"delivery_method"`
		Status OrderStatus    `json:"status"`
	}{DeliveryHomeDelivery, OrderStatusCanceled})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"delivery_method":3,"status":4}` {
		t.Errorf("expected integer wire codes, got %s", data)
	}

	var m DeliveryMethod
	if err := json.Unmarshal([]byte("9"), &m); err == nil {
		t.Error("expected unknown delivery code to be rejected")
	}
	var s OrderStatus
	if err := json.Unmarshal([]byte(`"PENDING"`), &s); err == nil {
		t.Error("expected a string status to be rejected")
	}
	if _, err := json.Marshal(OrderStatus(0)); err == nil {
		t.Error("expected the zero status to be rejected")
	}
}
