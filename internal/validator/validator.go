// Package validator holds the field shape checks shared by every request path.
package validator

import (
	"regexp"
	"slices"
	"strings"

	"github.com/fjod/go_cart/shop-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 15
)

var (
	emailPattern  = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
	mobilePattern = regexp.MustCompile(`^(?:(?:\+|0{0,2})91(\s*-\s*)?|0?)?[6789]\d{9}$`)
)

// IsValid reports whether s holds something other than whitespace.
func IsValid(s string) bool {
	return strings.TrimSpace(s) != ""
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidMobile accepts ten digit Indian mobile numbers starting with 6-9.
func IsValidMobile(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	return mobilePattern.MatchString(phone)
}

func IsValidObjectID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func IsValidSize(size string) bool {
	return slices.Contains(domain.AvailableSizes, size)
}

func IsValidPassword(password string) bool {
	n := len(strings.TrimSpace(password))
	return n >= MinPasswordLength && n <= MaxPasswordLength
}
