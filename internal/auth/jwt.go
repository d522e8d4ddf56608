package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// Claims holds the identity claims shown to the user
type Claims struct {
	Subject   string
	Email     string
	Name      string
	Username  string
	Issuer    string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// ExtractClaims reads claims from a JWT without verifying its signature. The
// result is for display only; the authorization server is the one that
// validates tokens.
func ExtractClaims(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	c := &Claims{
		Email:    stringClaim(claims, "email"),
		Name:     stringClaim(claims, "name"),
		Username: firstNonEmpty(stringClaim(claims, "preferred_username"), stringClaim(claims, "username")),
	}
	c.Subject, _ = claims.GetSubject()
	c.Issuer, _ = claims.GetIssuer()
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	return c, nil
}

// ExtractTokenClaims prefers the id_token when the token response carried one
func ExtractTokenClaims(tok *oauth2.Token) (*Claims, error) {
	if idToken, ok := tok.Extra("id_token").(string); ok && idToken != "" {
		return ExtractClaims(idToken)
	}
	return ExtractClaims(tok.AccessToken)
}

// DisplayName returns the best available display name for the user
func (c *Claims) DisplayName() string {
	if c.Username != "" {
		return c.Username
	}
	if c.Name != "" {
		return c.Name
	}
	if c.Email != "" {
		if at := strings.Index(c.Email, "@"); at > 0 {
			return c.Email[:at]
		}
		return c.Email
	}
	return c.Subject
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
