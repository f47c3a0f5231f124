package handlers

import (
	"time"

	"tracknow/internal/domain"
	"tracknow/internal/service/proof"
)

func toPoint(p *pointDTO) *domain.Point {
	if p == nil {
		return nil
	}
	return &domain.Point{Lat: p.Lat, Lon: p.Lon}
}

func fromPoint(p *domain.Point) *pointDTO {
	if p == nil {
		return nil
	}
	return &pointDTO{Lat: p.Lat, Lon: p.Lon}
}

func (r createOrderRequest) toModel() domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		ClientID:           r.ClientID,
		OriginAddress:      r.OriginAddress,
		DestinationAddress: r.DestinationAddress,
		Origin:             toPoint(r.Origin),
		Destination:        toPoint(r.Destination),
		Amount:             r.Amount,
	}
}

// orderToResponse never exposes the delivery token.
func orderToResponse(o *domain.Order) orderResponse {
	resp := orderResponse{
		ID:                 o.ID,
		ClientID:           o.ClientID,
		CourierID:          o.CourierID,
		SellerID:           o.SellerID,
		OriginAddress:      o.OriginAddress,
		DestinationAddress: o.DestinationAddress,
		Origin:             fromPoint(o.Origin),
		Destination:        fromPoint(o.Destination),
		Status:             o.Status.String(),
		PaymentStatus:      string(o.PaymentStatus),
		PaymentTxID:        o.PaymentTxID,
		CreatedAt:          o.CreatedAt,
		PaidAt:             o.PaidAt,
		DeliveredAt:        o.DeliveredAt,
	}
	if o.Amount.Valid {
		amount := o.Amount.Decimal
		resp.Amount = &amount
	}
	return resp
}

func ordersToResponse(list []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(list))
	for i := range list {
		out = append(out, orderToResponse(&list[i]))
	}
	return out
}

func qrToResponse(q proof.QR) qrResponse {
	return qrResponse{OrderID: q.OrderID, URL: q.URL, Image: q.Image}
}

func (r locationRequest) toModel(orderID int64) domain.LocationReport {
	rep := domain.LocationReport{OrderID: orderID, Lat: r.Lat, Lon: r.Lon}
	if r.Timestamp != nil {
		rep.Timestamp = r.Timestamp.UTC()
	}
	return rep
}

func locationToResponse(l domain.Location) locationResponse {
	return locationResponse{OrderID: l.OrderID, Lat: l.Lat, Lon: l.Lon, RecordedAt: l.RecordedAt}
}

func routeToResponse(list []domain.Location) []locationResponse {
	out := make([]locationResponse, 0, len(list))
	for _, l := range list {
		out = append(out, locationToResponse(l))
	}
	return out
}

func ratingToResponse(rt *domain.Rating) ratingResponse {
	return ratingResponse{
		ID:        rt.ID,
		OrderID:   rt.OrderID,
		ClientID:  rt.ClientID,
		CourierID: rt.CourierID,
		Score:     rt.Score,
		Comment:   rt.Comment,
		CreatedAt: rt.CreatedAt,
	}
}

func (r paymentWebhookRequest) toModel() domain.PaymentOutcome {
	return domain.PaymentOutcome{
		OrderID:       r.OrderID,
		TransactionID: r.TransactionID,
		Result:        domain.PaymentResult(r.Outcome),
	}
}

func performanceToResponse(rep domain.PerformanceReport) performanceResponse {
	out := performanceResponse{
		Total:            rep.Total,
		Delivered:        rep.Delivered,
		Pending:          rep.Pending,
		InTransit:        rep.InTransit,
		Cancelled:        rep.Cancelled,
		AvgDeliveryHours: rep.AvgDeliveryHours,
		AvgRating:        rep.AvgRating,
		Couriers:         make([]courierPerformanceDTO, 0, len(rep.Couriers)),
		GeneratedAt:      rep.GeneratedAt,
	}
	for _, c := range rep.Couriers {
		out.Couriers = append(out.Couriers, courierPerformanceDTO(c))
	}
	return out
}

func notificationsToResponse(list []domain.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, notificationResponse{
			ID:        n.ID.String(),
			OrderID:   n.OrderID,
			Type:      string(n.Type),
			Message:   n.Message,
			CreatedAt: n.CreatedAt,
		})
	}
	return out
}

func parseTimeParam(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
