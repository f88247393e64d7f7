package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/duebook/internal/schedule"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
	"gorm.io/datatypes"
)

type createSubscriptionBody struct {
	ClientID    string            `json:"client_id"`
	ServiceID   string            `json:"service_id"`
	BillingMode string            `json:"billing_mode"`
	Period      *schedule.Period  `json:"period,omitempty"`
	ChargeDay   *int              `json:"charge_day,omitempty"`
	CustomPrice *int64            `json:"custom_price,omitempty"`
	StartDate   string            `json:"start_date"`
	IsActive    *bool             `json:"is_active,omitempty"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
}

type updateSubscriptionBody struct {
	Period          *schedule.Period  `json:"period,omitempty"`
	ChargeDay       *int              `json:"charge_day,omitempty"`
	CustomPrice     *int64            `json:"custom_price,omitempty"`
	StartDate       *string           `json:"start_date,omitempty"`
	NextPaymentDate *string           `json:"next_payment_date,omitempty"`
	IsActive        *bool             `json:"is_active,omitempty"`
	Metadata        datatypes.JSONMap `json:"metadata,omitempty"`
}

func (s *Server) createSubscription(c *gin.Context) {
	var body createSubscriptionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: errorPayload{Type: "validation_error", Message: err.Error()}})
		return
	}

	startDate, err := parseDate(body.StartDate)
	if err != nil {
		c.Error(subscriptiondomain.ErrInvalidStartDate)
		return
	}

	sub, err := s.subscriptionSvc.Create(c.Request.Context(), subscriptiondomain.CreateSubscriptionRequest{
		ClientID:    body.ClientID,
		ServiceID:   body.ServiceID,
		BillingMode: subscriptiondomain.BillingMode(body.BillingMode),
		Period:      body.Period,
		ChargeDay:   body.ChargeDay,
		CustomPrice: body.CustomPrice,
		StartDate:   startDate,
		IsActive:    body.IsActive,
		Metadata:    body.Metadata,
		Actor:       actorFrom(c),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (s *Server) updateSubscription(c *gin.Context) {
	var body updateSubscriptionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: errorPayload{Type: "validation_error", Message: err.Error()}})
		return
	}

	startDate, err := parseDatePtr(body.StartDate)
	if err != nil {
		c.Error(subscriptiondomain.ErrInvalidStartDate)
		return
	}
	nextPaymentDate, err := parseDatePtr(body.NextPaymentDate)
	if err != nil {
		c.Error(subscriptiondomain.ErrInvalidStartDate)
		return
	}

	sub, err := s.subscriptionSvc.Update(c.Request.Context(), subscriptiondomain.UpdateSubscriptionRequest{
		ID:              c.Param("id"),
		Period:          body.Period,
		ChargeDay:       body.ChargeDay,
		CustomPrice:     body.CustomPrice,
		StartDate:       startDate,
		NextPaymentDate: nextPaymentDate,
		IsActive:        body.IsActive,
		Metadata:        body.Metadata,
		Actor:           actorFrom(c),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (s *Server) deleteSubscription(c *gin.Context) {
	if err := s.subscriptionSvc.Delete(c.Request.Context(), c.Param("id"), actorFrom(c)); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getSubscription(c *gin.Context) {
	sub, err := s.subscriptionSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// listSubscriptions accepts repeated filter=field:value query params alongside
// page_token and page_size.
func (s *Server) listSubscriptions(c *gin.Context) {
	var filters []subscriptiondomain.Filter
	for _, raw := range c.QueryArray("filter") {
		field, value, ok := strings.Cut(raw, ":")
		if !ok {
			c.Error(subscriptiondomain.ErrInvalidFilter)
			return
		}
		filters = append(filters, subscriptiondomain.Filter{
			Field: subscriptiondomain.FilterField(field),
			Value: value,
		})
	}

	pageSize := 0
	if raw := c.Query("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.Error(subscriptiondomain.ErrInvalidFilter)
			return
		}
		pageSize = n
	}

	resp, err := s.subscriptionSvc.List(c.Request.Context(), subscriptiondomain.ListSubscriptionRequest{
		Filters:   filters,
		PageToken: c.Query("page_token"),
		PageSize:  int32(pageSize),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
