package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const tokenTypeAccess = "access"

// Service verifies access tokens issued by the identity provider and, for
// local tooling and tests, can mint tokens signed with the same secret.
type Service interface {
	GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(actor user.Actor) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	claims := map[string]interface{}{
		"user_id": actor.UserID,
		"role":    string(actor.Role),
		"type":    tokenTypeAccess,
		"exp":     expiresAt,
	}
	if actor.EmployeeID != "" {
		claims["employee_id"] = actor.EmployeeID
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ActorFromClaims converts verified token claims into a user.Actor.
func ActorFromClaims(claims map[string]interface{}) (user.Actor, error) {
	if tokenType, _ := claims["type"].(string); tokenType != tokenTypeAccess {
		return user.Actor{}, fmt.Errorf("%w: token type must be %q", user.ErrInvalidClaims, tokenTypeAccess)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return user.Actor{}, fmt.Errorf("%w: user_id claim is missing", user.ErrInvalidClaims)
	}

	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return user.Actor{}, fmt.Errorf("%w: role claim is missing", user.ErrInvalidClaims)
	}

	// employee_id is absent for accounts without a staff profile
	employeeID, _ := claims["employee_id"].(string)

	return user.Actor{
		UserID:     userID,
		EmployeeID: employeeID,
		Role:       user.Role(role),
	}, nil
}

type resolvedActorKey struct{}

// WithResolvedActor stores actor on ctx in place of the token claims. Used
// once the caller's employee profile has been looked up by user id.
func WithResolvedActor(ctx context.Context, actor user.Actor) context.Context {
	return context.WithValue(ctx, resolvedActorKey{}, actor)
}

// ActorFromContext returns the actor resolved by WithResolvedActor, or else
// reads the verified token placed on ctx by jwtauth.Verifier.
func ActorFromContext(ctx context.Context) (user.Actor, error) {
	if actor, ok := ctx.Value(resolvedActorKey{}).(user.Actor); ok {
		return actor, nil
	}

	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Actor{}, fmt.Errorf("%w: %v", user.ErrUnauthenticated, err)
	}
	if token == nil {
		return user.Actor{}, user.ErrUnauthenticated
	}
	return ActorFromClaims(claims)
}

// ContextWithActor returns ctx carrying a freshly minted token for actor, as
// jwtauth.Verifier would after verifying a request. Used by background jobs
// and tests that call services directly.
func ContextWithActor(ctx context.Context, svc Service, actor user.Actor) (context.Context, error) {
	tokenString, _, err := svc.GenerateAccessToken(actor)
	if err != nil {
		return nil, err
	}
	token, err := svc.JWTAuth().Decode(tokenString)
	if err != nil {
		return nil, err
	}
	return jwtauth.NewContext(ctx, token, nil), nil
}
