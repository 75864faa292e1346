package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the full stateless claim set. There is no revocation
// list; the auth middleware re-checks the account and tenant active flags
// on every protected request instead.
type AccessClaims struct {
	AccountID string `json:"uid"`
	TenantID  string `json:"tid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func IssueAccessToken(secret string, accountID, tenantID, email, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		AccountID: accountID,
		TenantID:  tenantID,
		Email:     email,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   accountID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

func ParseAccessToken(tokenStr string, secret string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

const selectionPurpose = "tenant_select"

// SelectionClaims binds a verified identifier to its candidate tenants
// between the ambiguous-login response and the select-tenant call, so the
// second call cannot name an arbitrary identifier or tenant.
type SelectionClaims struct {
	Purpose        string   `json:"purpose"`
	Identifier     string   `json:"identifier"`
	IdentifierKind string   `json:"kind"`
	TenantIDs      []string `json:"tenants"`
	jwt.RegisteredClaims
}

func IssueSelectionToken(secret string, identifier, kind string, tenantIDs []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SelectionClaims{
		Purpose:        selectionPurpose,
		Identifier:     identifier,
		IdentifierKind: kind,
		TenantIDs:      tenantIDs,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   identifier,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign selection jwt: %w", err)
	}
	return signed, nil
}

func ParseSelectionToken(tokenStr string, secret string) (*SelectionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SelectionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*SelectionClaims)
	if !ok || !token.Valid || claims.Purpose != selectionPurpose {
		return nil, fmt.Errorf("invalid selection token")
	}
	return claims, nil
}
