package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/guardiaspro/api-estructuras/internal/config"
)

// Llaves guarda la llave RS256 activa y lo que se exige a cada token.
type Llaves struct {
	priv      *rsa.PrivateKey
	pubs      map[string]*rsa.PublicKey // kid -> pub
	activeKID string
	issuer    string
	audience  string
	ttl       time.Duration
}

// NuevasLlaves arma las llaves a partir de una llave privada ya cargada.
func NuevasLlaves(priv *rsa.PrivateKey, kid, issuer, audience string, ttl time.Duration) (*Llaves, error) {
	if priv == nil {
		return nil, errors.New("llave privada nula")
	}
	if kid == "" || issuer == "" || audience == "" {
		return nil, errors.New("kid, issuer y audience son obligatorios")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Llaves{
		priv:      priv,
		pubs:      map[string]*rsa.PublicKey{kid: &priv.PublicKey},
		activeKID: kid,
		issuer:    issuer,
		audience:  audience,
		ttl:       ttl,
	}, nil
}

// CargarLlaves lee el PEM de AUTH_RSA_PRIVATE_PATH.
func CargarLlaves(cfg config.AuthOptions) (*Llaves, error) {
	if cfg.RSAPrivatePath == "" {
		return nil, errors.New("falta AUTH_RSA_PRIVATE_PATH")
	}
	b, err := os.ReadFile(cfg.RSAPrivatePath)
	if err != nil {
		return nil, fmt.Errorf("leer llave privada: %w", err)
	}
	priv, err := ParsePrivada(b)
	if err != nil {
		return nil, err
	}
	return NuevasLlaves(priv, cfg.KID, cfg.Issuer, cfg.Audience, cfg.AccessTTL)
}

// ParsePrivada acepta PKCS#1 o PKCS#8.
func ParsePrivada(b []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(b)
	if block == nil {
		return nil, errors.New("pem decode de la llave privada falló")
	}

	var pk any
	if k, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		pk = k
	} else if k8, err2 := x509.ParsePKCS8PrivateKey(block.Bytes); err2 == nil {
		pk = k8
	} else {
		return nil, fmt.Errorf("parse llave privada: %v / %v", err, err2)
	}

	priv, ok := pk.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("la llave privada no es RSA")
	}
	return priv, nil
}

func (l *Llaves) pub(kid string) (*rsa.PublicKey, bool) {
	p, ok := l.pubs[kid]
	return p, ok
}

func signMethod() jwt.SigningMethod { return jwt.SigningMethodRS256 }
