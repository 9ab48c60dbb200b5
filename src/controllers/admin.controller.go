package controllers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/judy2649/the-grey-pegeant/src/db"
	"github.com/judy2649/the-grey-pegeant/src/models"
	"github.com/judy2649/the-grey-pegeant/src/models/scopes"
	"github.com/judy2649/the-grey-pegeant/src/types"
	"github.com/judy2649/the-grey-pegeant/src/utils"
	"gorm.io/gorm"
)

const (
	defaultBookingsLimit = 100
	maxBookingsLimit     = 500
)

type TierSummary struct {
	TierName string  `json:"tierName"`
	Count    int64   `json:"count"`
	Revenue  float64 `json:"revenue"`
}

type StatusSummary struct {
	Status types.BookingStatus `json:"status"`
	Count  int64               `json:"count"`
}

type TrendPoint struct {
	Date    string  `json:"date"`
	Count   int64   `json:"count"`
	Revenue float64 `json:"revenue"`
}

type Analytics struct {
	TotalTickets int64           `json:"totalTickets"`
	TotalRevenue float64         `json:"totalRevenue"`
	PendingCount int64           `json:"pendingCount"`
	ByTier       []TierSummary   `json:"byTier"`
	ByStatus     []StatusSummary `json:"byStatus"`
	SalesTrend   []TrendPoint    `json:"salesTrend"`
}

// ListBookings returns bookings newest first, optionally filtered by status and tier.
func ListBookings(tx *gorm.DB, filters types.BookingQueryFilters) ([]models.Booking, error) {
	q := tx.Model(&models.Booking{})
	if s := strings.TrimSpace(filters.Status); s != "" {
		q = q.Scopes(scopes.WithStatus(types.BookingStatus(strings.ToUpper(s))))
	}
	if t := strings.TrimSpace(filters.Tier); t != "" {
		q = q.Scopes(scopes.WithTier(utils.NormalizeTier(t)))
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultBookingsLimit
	}
	if limit > maxBookingsLimit {
		limit = maxBookingsLimit
	}
	var bookings []models.Booking
	if err := q.Order("created_at DESC").Limit(limit).Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// BookingAnalytics aggregates sales. Tickets, revenue, tiers and trend only count
// bookings that hold a seat.
func BookingAnalytics(tx *gorm.DB) (*Analytics, error) {
	a := &Analytics{ByTier: []TierSummary{}, ByStatus: []StatusSummary{}, SalesTrend: []TrendPoint{}}
	if err := tx.Model(&models.Booking{}).Scopes(scopes.WithCapacityStatus).Count(&a.TotalTickets).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Booking{}).
		Scopes(scopes.WithCapacityStatus).
		Select("COALESCE(SUM(amount),0)").
		Scan(&a.TotalRevenue).
		Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Booking{}).Scopes(scopes.WithPendingStatus).Count(&a.PendingCount).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Booking{}).
		Scopes(scopes.WithCapacityStatus).
		Select("tier_name, count(*) AS count, COALESCE(SUM(amount),0) AS revenue").
		Group("tier_name").
		Order("tier_name").
		Scan(&a.ByTier).
		Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Booking{}).
		Select("status, count(*) AS count").
		Group("status").
		Order("status").
		Scan(&a.ByStatus).
		Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Booking{}).
		Scopes(scopes.WithCapacityStatus).
		Select("TO_CHAR(DATE(created_at), 'YYYY-MM-DD') AS date, count(*) AS count, COALESCE(SUM(amount),0) AS revenue").
		Group("DATE(created_at)").
		Order("DATE(created_at)").
		Scan(&a.SalesTrend).
		Error; err != nil {
		return nil, err
	}
	return a, nil
}

func AdminListBookings(ctx *gin.Context) (bookings []models.Booking, status int, err error) {
	var filters types.BookingQueryFilters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		return nil, http.StatusBadRequest, err
	}
	bookings, err = ListBookings(db.GetDb().WithContext(ctx.Request.Context()), filters)
	if err != nil {
		log.Printf("[Admin] error listing bookings: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return bookings, http.StatusOK, nil
}

func AdminAnalytics(ctx *gin.Context) (analytics *Analytics, status int, err error) {
	analytics, err = BookingAnalytics(db.GetDb().WithContext(ctx.Request.Context()))
	if err != nil {
		log.Printf("[Admin] error computing analytics: %s\n", err.Error())
		return nil, http.StatusInternalServerError, err
	}
	return analytics, http.StatusOK, nil
}
