package auth

import (
	"encoding/base64"
	"math/big"
	"net/http"
	"sort"

	"github.com/guardiaspro/api-estructuras/internal/utils"
)

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// GET /.well-known/jwks.json
func (l *Llaves) JWKSHandler(w http.ResponseWriter, r *http.Request) {
	kids := make([]string, 0, len(l.pubs))
	for kid := range l.pubs {
		kids = append(kids, kid)
	}
	sort.Strings(kids)

	resp := struct {
		Keys []jwk `json:"keys"`
	}{Keys: make([]jwk, 0, len(kids))}
	for _, kid := range kids {
		pub := l.pubs[kid]
		resp.Keys = append(resp.Keys, jwk{
			Kty: "RSA",
			Alg: "RS256",
			Use: "sig",
			Kid: kid,
			N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		})
	}
	utils.RespondJSON(w, http.StatusOK, resp)
}
