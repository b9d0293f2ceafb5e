package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"somplus/domain"
	"strings"
	"time"
)

// gradeTypes and gradeAdditional are the query parameters Somtoday
// needs to return usable result columns in one call.
var gradeTypes = []string{
	"Toetskolom",
	"DeeltoetsKolom",
	"Werkstukcijferkolom",
	"Advieskolom",
}

var gradeAdditional = []string{
	"vaknaam",
	"resultaatkolom",
	"naamalternatiefniveau",
	"vakuuid",
	"lichtinguuid",
}

type somtodayAPI struct {
	apiBase    string
	oauthURL   string
	clientID   string
	pageSize   int
	httpClient *http.Client
}

func NewSomtodayAPI(apiBase, oauthURL, clientID string, pageSize int, timeout time.Duration) domain.SchoolAPI {
	return &somtodayAPI{
		apiBase:  strings.TrimRight(apiBase, "/"),
		oauthURL: oauthURL,
		clientID: clientID,
		pageSize: pageSize,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type itemsEnvelope struct {
	Items []domain.Record `json:"items"`
}

// RefreshToken exchanges the stored refresh token for a fresh access
// token. Somtoday rotates the refresh token; when the response omits it
// the old one is still valid and returned unchanged.
func (s *somtodayAPI) RefreshToken(ctx context.Context, refreshToken string) (string, string, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", s.clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return "", "", fmt.Errorf("token endpoint returned no access token")
	}

	newRefresh := result.RefreshToken
	if newRefresh == "" {
		newRefresh = refreshToken
	}
	return result.AccessToken, newRefresh, nil
}

// FetchGrades collects every result column for the student from both
// the progress and the exam dossier, paging with Range headers until a
// short batch comes back.
func (s *somtodayAPI) FetchGrades(ctx context.Context, accessToken, studentID string) ([]domain.Record, error) {
	params := url.Values{}
	for _, t := range gradeTypes {
		params.Add("type", t)
	}
	for _, a := range gradeAdditional {
		params.Add("additional", a)
	}
	params.Set("sort", "desc-geldendResultaatCijferInvoer")

	endpoints := []string{
		fmt.Sprintf("%s/geldendvoortgangsdossierresultaten/leerling/%s", s.apiBase, studentID),
		fmt.Sprintf("%s/geldendexamendossierresultaten/leerling/%s", s.apiBase, studentID),
	}

	var all []domain.Record
	for _, endpoint := range endpoints {
		rangeStart := 0
		for {
			rangeHeader := fmt.Sprintf("items=%d-%d", rangeStart, rangeStart+s.pageSize-1)
			batch, err := s.getItems(ctx, endpoint, params, accessToken, rangeHeader)
			if err != nil {
				return nil, err
			}
			if len(batch) == 0 {
				break
			}
			all = append(all, batch...)
			rangeStart += s.pageSize
			if len(batch) < s.pageSize {
				break
			}
		}
	}
	return all, nil
}

// FetchSchedule returns the raw lesson occurrences between start and
// end (inclusive dates).
func (s *somtodayAPI) FetchSchedule(ctx context.Context, accessToken string, start, end time.Time) ([]domain.Record, error) {
	params := url.Values{}
	params.Set("begindatum", start.Format("2006-01-02"))
	params.Set("einddatum", end.Format("2006-01-02"))
	params.Set("sort", "asc-id")
	params.Add("additional", "vak")
	params.Add("additional", "docentAfkortingen")

	endpoint := s.apiBase + "/afspraken"
	return s.getItems(ctx, endpoint, params, accessToken, "")
}

func (s *somtodayAPI) getItems(ctx context.Context, endpoint string, params url.Values, accessToken, rangeHeader string) ([]domain.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("somtoday returned status %d: %s", resp.StatusCode, string(body))
	}

	var envelope itemsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return envelope.Items, nil
}
