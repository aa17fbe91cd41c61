package vtex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// OrdersByDocument searches OMS orders for a customer document. When
// includeIncomplete is set, incomplete orders are fetched with a second call
// and merged into the same list. Requires app credentials.
func (c *Client) OrdersByDocument(ctx context.Context, document string, includeIncomplete bool) (map[string]any, error) {
	if document == "" {
		return nil, fmt.Errorf("document is required")
	}

	u := c.baseURL + "/api/oms/pvt/orders?q=" + url.QueryEscape(document)
	var orders map[string]any
	if err := c.doJSON(ctx, http.MethodGet, u, nil, true, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = map[string]any{"list": []any{}}
	}

	if includeIncomplete {
		var incomplete map[string]any
		err := c.doJSON(ctx, http.MethodGet, u+"&incompleteOrders=true", nil, true, &incomplete)
		// A failed incomplete-orders fetch does not invalidate the complete
		// list already in hand.
		if err == nil {
			mergeOrderLists(orders, incomplete)
		}
	}

	return orders, nil
}

func mergeOrderLists(dst, src map[string]any) {
	extra, ok := src["list"].([]any)
	if !ok || len(extra) == 0 {
		return
	}
	list, _ := dst["list"].([]any)
	dst["list"] = append(list, extra...)
}

// OrderByID fetches one OMS order. Requires app credentials.
func (c *Client) OrderByID(ctx context.Context, orderID string) (map[string]any, error) {
	if orderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	u := c.baseURL + "/api/oms/pvt/orders/" + url.PathEscape(orderID)
	var order map[string]any
	if err := c.doJSON(ctx, http.MethodGet, u, nil, true, &order); err != nil {
		return nil, err
	}
	return order, nil
}
