package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// registerBuiltins installs the demo services used by the bundled
// hospital, restaurant, and theater scenarios.
func registerBuiltins(r *Registry) {
	registerCommon(r)
	registerHospital(r)
	registerRestaurant(r)
	registerTheater(r)
}

// registerCommon installs scenario-independent helpers available to
// every script.
func registerCommon(r *Registry) {
	r.Register("get_time", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return time.Now().Format("2006-01-02 15:04"), nil
	})

	r.Register("echo", func(ctx context.Context, args []interface{}) (interface{}, error) {
		parts := make([]string, len(args))
		for i := range args {
			parts[i] = argString(args, i)
		}
		return strings.Join(parts, " "), nil
	})
}

// newRef generates a short prefixed reference like "H-1a2b3c4d"
func newRef(prefix string) string {
	return prefix + "-" + strings.Split(uuid.NewString(), "-")[0]
}

func registerHospital(r *Registry) {
	r.Register("list_departments", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return []interface{}{
			"internal medicine", "surgery", "pediatrics",
			"obstetrics", "ophthalmology", "dentistry",
		}, nil
	})

	r.Register("find_doctors", func(ctx context.Context, args []interface{}) (interface{}, error) {
		dept := argString(args, 0)
		return "Specialists in " + dept + ": Dr. Zhang, Dr. Li, Dr. Wang", nil
	})

	r.Register("create_registration", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"order_id":   newRef("H"),
			"department": argString(args, 0),
			"doctor":     argString(args, 1),
		}, nil
	})

	r.Register("query_fees", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"registration_fee": int64(50),
			"examination_fee":  int64(200),
			"medication_fee":   int64(150),
		}, nil
	})

	r.Register("process_payment", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"status":         "success",
			"transaction_id": newRef("T"),
		}, nil
	})

	r.Register("pickup_info", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"window":       "window 3",
			"queue_length": int64(5),
		}, nil
	})
}

func registerRestaurant(r *Registry) {
	r.Register("get_menu", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return []interface{}{
			map[string]interface{}{"name": "braised pork", "price": int64(48)},
			map[string]interface{}{"name": "steamed fish", "price": int64(68)},
			map[string]interface{}{"name": "kung pao chicken", "price": int64(38)},
			map[string]interface{}{"name": "rice", "price": int64(3)},
		}, nil
	})

	r.Register("add_dish", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"dish":     argString(args, 0),
			"quantity": argAt(args, 1),
			"status":   "added",
		}, nil
	})

	r.Register("order_total", func(ctx context.Context, args []interface{}) (interface{}, error) {
		items, ok := argAt(args, 0).([]interface{})
		if !ok {
			return int64(0), nil
		}
		total := 0.0
		for _, item := range items {
			entry, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			price := numberOrZero(entry["price"])
			qty := numberOrZero(entry["quantity"])
			if qty == 0 {
				qty = 1
			}
			total += price * qty
		}
		return total, nil
	})

	r.Register("confirm_order", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"order_id": newRef("D"),
			"status":   "confirmed",
		}, nil
	})

	r.Register("process_order_payment", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"status": "paid",
			"method": argString(args, 1),
		}, nil
	})
}

func registerTheater(r *Registry) {
	r.Register("list_shows", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return []interface{}{
			map[string]interface{}{"name": "Swan Lake", "time": "Saturday 19:00", "price": int64(280)},
			map[string]interface{}{"name": "Teahouse", "time": "Sunday 14:00", "price": int64(180)},
			map[string]interface{}{"name": "Cats", "time": "Sunday 19:00", "price": int64(380)},
		}, nil
	})

	r.Register("list_seats", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return []interface{}{"section A", "section B", "section C"}, nil
	})

	r.Register("buy_tickets", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"ticket_id": newRef("P"),
			"show":      argString(args, 0),
			"seat":      argString(args, 1),
			"quantity":  argAt(args, 2),
		}, nil
	})

	r.Register("pay_tickets", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"status":    "paid",
			"ticket_id": argString(args, 0),
		}, nil
	})

	r.Register("ticket_code", func(ctx context.Context, args []interface{}) (interface{}, error) {
		return map[string]interface{}{
			"code":   strings.ToUpper(strings.Split(uuid.NewString(), "-")[1]),
			"pickup": "self-service kiosk",
		}, nil
	})
}

// numberOrZero widens numeric values to float64 and maps everything
// else to 0
func numberOrZero(v interface{}) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}
