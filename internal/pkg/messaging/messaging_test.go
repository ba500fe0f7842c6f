package messaging

import (
	"context"
	"errors"
	"testing"
)

func newTestDelivery(acks, nacks *int) *delivery {
	return &delivery{
		id:   "m-1",
		body: []byte(`{}`),
		ack:  func(context.Context) error { *acks++; return nil },
		nack: func(context.Context) error { *nacks++; return nil },
	}
}

func TestDispatch_AutoAck(t *testing.T) {
	errHandler := errors.New("handler failed")

	tests := []struct {
		name      string
		handler   Handler
		autoAck   bool
		wantErr   bool
		wantAcks  int
		wantNacks int
	}{
		{
			name:     "success acks",
			handler:  func(context.Context, Message) error { return nil },
			autoAck:  true,
			wantAcks: 1,
		},
		{
			name:      "failure nacks",
			handler:   func(context.Context, Message) error { return errHandler },
			autoAck:   true,
			wantErr:   true,
			wantNacks: 1,
		},
		{
			name:      "panic nacks",
			handler:   func(context.Context, Message) error { panic("boom") },
			autoAck:   true,
			wantErr:   true,
			wantNacks: 1,
		},
		{
			name:    "manual mode leaves message alone",
			handler: func(context.Context, Message) error { return errHandler },
			wantErr: true,
		},
		{
			name: "handler ack is not repeated",
			handler: func(ctx context.Context, m Message) error {
				return m.Ack(ctx)
			},
			autoAck:  true,
			wantAcks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			var acks, nacks int
			d := newTestDelivery(&acks, &nacks)

			// Act
			err := dispatch(context.Background(), "test", d, tt.handler, tt.autoAck)

			// Assert
			if (err != nil) != tt.wantErr {
				t.Errorf("dispatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if acks != tt.wantAcks || nacks != tt.wantNacks {
				t.Errorf("acks/nacks = %d/%d, want %d/%d", acks, nacks, tt.wantAcks, tt.wantNacks)
			}
		})
	}
}

func TestNewConsumeOptions(t *testing.T) {
	co := newConsumeOptions(WithGroup("g"), WithConcurrency(0), nil, WithAutoAck(true))

	if co.group != "g" || !co.autoAck {
		t.Errorf("options = %+v", co)
	}
	if co.concurrency != 1 || co.maxInFlight != 1 {
		t.Errorf("concurrency/maxInFlight = %d/%d, want 1/1", co.concurrency, co.maxInFlight)
	}
}

func TestNewFromDriver_Validation(t *testing.T) {
	tests := []struct {
		driver  string
		opts    FactoryOptions
		wantErr error
	}{
		{driver: "rabbitmq", wantErr: ErrUnknownDriver},
		{driver: "kafka", wantErr: ErrKafkaBrokersRequired},
		{driver: "nats", wantErr: ErrNATSURLRequired},
		{driver: "google-pubsub", wantErr: ErrPubSubProjectIDRequired},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			if _, err := NewFromDriver(context.Background(), tt.driver, tt.opts); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewFromDriver() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNSQ_PublishWithoutProducer(t *testing.T) {
	n, err := NewNSQ(NSQConfig{})
	if err != nil {
		t.Fatalf("NewNSQ() error = %v", err)
	}

	_, err = n.Publish(context.Background(), "otp_issued", OutgoingMessage{Body: []byte("x")})
	if !errors.Is(err, ErrNSQProducerAddrRequired) {
		t.Errorf("Publish() error = %v, want ErrNSQProducerAddrRequired", err)
	}

	err = n.Consume(context.Background(), "otp_issued", func(context.Context, Message) error { return nil }, WithGroup("c"))
	if !errors.Is(err, ErrNSQConsumerAddrsRequired) {
		t.Errorf("Consume() error = %v, want ErrNSQConsumerAddrsRequired", err)
	}
}
