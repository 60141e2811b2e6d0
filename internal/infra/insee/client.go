package insee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

var (
	ErrSiretNotFound = errors.New("siret not found")
	ErrUnavailable   = errors.New("siret registry unavailable")
)

// Establishment is the subset of the Sirene record registration cares about.
type Establishment struct {
	Siret   string
	Name    string
	Address string
}

// Client checks siret numbers against the INSEE Sirene API. Tokens come from
// the OAuth2 client-credentials flow and are refreshed by the oauth2
// transport.
type Client struct {
	http    *http.Client
	baseURL string
}

const (
	tokenURL    = "https://api.insee.fr/token"
	defaultBase = "https://api.insee.fr/entreprises/sirene/V3"
)

func New(clientID, clientSecret string) *Client {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return &Client{
		http:    cc.Client(context.Background()),
		baseURL: defaultBase,
	}
}

func (c *Client) Verify(ctx context.Context, siret string) (*Establishment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/siret/%s", c.baseURL, siret), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrSiretNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Etablissement struct {
			Siret       string `json:"siret"`
			UniteLegale struct {
				Denomination string `json:"denominationUniteLegale"`
			} `json:"uniteLegale"`
			Adresse struct {
				LibelleVoie string `json:"libelleVoieEtablissement"`
			} `json:"adresseEtablissement"`
		} `json:"etablissement"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	if body.Etablissement.Siret == "" {
		return nil, ErrSiretNotFound
	}

	return &Establishment{
		Siret:   body.Etablissement.Siret,
		Name:    body.Etablissement.UniteLegale.Denomination,
		Address: body.Etablissement.Adresse.LibelleVoie,
	}, nil
}
