package stats

import (
	"gorm.io/gorm"

	"github.com/skillforge/marketplace-server-go/internal/features/course"
	"github.com/skillforge/marketplace-server-go/internal/features/enrollment"
	"github.com/skillforge/marketplace-server-go/internal/features/payment"
	"github.com/skillforge/marketplace-server-go/internal/features/user"
	"github.com/skillforge/marketplace-server-go/pkg/types"
)

// Overview is the platform-wide aggregate snapshot. It is computed from
// the live tables on every call so figures never go stale.
type Overview struct {
	TotalUsers       int64       `json:"totalUsers"`
	TotalCourses     int64       `json:"totalCourses"`
	TotalEnrollments int64       `json:"totalEnrollments"`
	TotalRevenue     types.Money `json:"totalRevenue"`
}

// Collect gathers the current platform totals. Revenue sums completed
// ledger rows only.
func Collect(db *gorm.DB) (Overview, error) {
	var o Overview

	if err := db.Model(&user.User{}).Count(&o.TotalUsers).Error; err != nil {
		return o, err
	}

	if err := db.Model(&course.Course{}).Count(&o.TotalCourses).Error; err != nil {
		return o, err
	}

	if err := db.Model(&enrollment.Enrollment{}).Count(&o.TotalEnrollments).Error; err != nil {
		return o, err
	}

	var revenue types.Money
	err := db.Model(&payment.Record{}).
		Where("status = ?", types.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&revenue).Error
	if err != nil {
		return o, err
	}
	o.TotalRevenue = revenue

	return o, nil
}
