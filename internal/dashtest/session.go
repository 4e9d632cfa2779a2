package dashtest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tneacademy/vantage/pkg/logger"
)

// obtainSession returns the access token to exercise with: the preset
// token when supplied, otherwise a fresh login against the platform.
func obtainSession(ctx context.Context, client *HTTPClient, config *Config) (string, error) {
	token := config.Token
	if token == "" {
		logger.Get().Info(ctx, "logging into the assessment platform",
			logger.String("upstream", config.UpstreamURL),
			logger.String("email", config.Email))

		var err error
		token, err = login(ctx, client, config.UpstreamURL, config.Email, config.Password)
		if err != nil {
			return "", err
		}
	}

	if err := inspectToken(token); err != nil {
		return "", fmt.Errorf("session token rejected: %w", err)
	}
	return token, nil
}

// inspectToken decodes the claims without verifying the signature and
// rejects tokens the aggregator would refuse anyway. The aggregator and
// the platform stay the authorities; this only fails fast on obvious
// mistakes such as pasting a refresh token.
func inspectToken(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("not a decodable JWT: %w", err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return fmt.Errorf("token carries no subject")
	}

	if typ, ok := claims["type"].(string); ok && typ != "" && typ != "access" {
		return fmt.Errorf("token type is %q, expected an access token", typ)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		if remaining := time.Until(exp.Time); remaining <= 0 {
			return fmt.Errorf("token expired %s ago", (-remaining).Round(time.Second))
		} else if remaining < time.Minute {
			log.Printf("token expires in %s; a long run may outlive it", remaining.Round(time.Second))
		}
	}

	return nil
}
