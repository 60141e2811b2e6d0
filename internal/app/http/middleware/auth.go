package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUID       = "uid"
	CtxEmail     = "email"
	CtxRole      = "role"
	CtxCompanyID = "company_id"
	CtxServices  = "services"
)

// Authenticator verifies bearer tokens. Two accepted shapes: HS256 service
// tokens signed with the shared secret, and ID tokens from the external
// identity provider when an OIDC issuer is configured. Token issuance never
// happens here.
type Authenticator struct {
	jwtSecret []byte
	verifier  *oidc.IDTokenVerifier
}

func NewAuthenticator(ctx context.Context, jwtSecret, issuer, audience string) (*Authenticator, error) {
	a := &Authenticator{jwtSecret: []byte(jwtSecret)}
	if issuer != "" {
		provider, err := oidc.NewProvider(ctx, issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery for %s: %w", issuer, err)
		}
		a.verifier = provider.Verifier(&oidc.Config{ClientID: audience})
	}
	return a, nil
}

type identity struct {
	UID       string
	Email     string
	Role      string
	CompanyID string
	Services  []string
}

func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Bearer token malformed"})
			c.Abort()
			return
		}

		id, err := a.verifyLocal(tokenString)
		if err != nil && a.verifier != nil {
			id, err = a.verifyOIDC(c.Request.Context(), tokenString)
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(CtxUID, id.UID)
		c.Set(CtxEmail, id.Email)
		c.Set(CtxRole, id.Role)
		c.Set(CtxCompanyID, id.CompanyID)
		c.Set(CtxServices, id.Services)
		c.Next()
	}
}

func (a *Authenticator) verifyLocal(tokenString string) (*identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	id := &identity{}
	if v, ok := claims["uid"].(string); ok {
		id.UID = v
	}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if v, ok := claims["role"].(string); ok {
		id.Role = v
	}
	if v, ok := claims["companyId"].(string); ok {
		id.CompanyID = v
	}
	if raw, ok := claims["services"].([]interface{}); ok {
		for _, s := range raw {
			if str, ok := s.(string); ok {
				id.Services = append(id.Services, str)
			}
		}
	}
	if id.UID == "" {
		return nil, fmt.Errorf("token missing uid")
	}
	return id, nil
}

func (a *Authenticator) verifyOIDC(ctx context.Context, rawToken string) (*identity, error) {
	idToken, err := a.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	var claims struct {
		Email     string   `json:"email"`
		Role      string   `json:"role"`
		CompanyID string   `json:"companyId"`
		Services  []string `json:"services"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}

	return &identity{
		UID:       idToken.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		CompanyID: claims.CompanyID,
		Services:  claims.Services,
	}, nil
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(CtxRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Role not found in token"})
			c.Abort()
			return
		}
		if value != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CompanyID resolves the caller's company: directors registered the company
// under their own uid, other roles carry an explicit companyId claim.
func CompanyID(c *gin.Context) string {
	if id := c.GetString(CtxCompanyID); id != "" {
		return id
	}
	if c.GetString(CtxRole) == "director" {
		return c.GetString(CtxUID)
	}
	return ""
}

// RequireCompanyScope rejects requests targeting a company other than the
// caller's own.
func RequireCompanyScope(c *gin.Context, companyID string) bool {
	if companyID == "" || CompanyID(c) != companyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		c.Abort()
		return false
	}
	return true
}
