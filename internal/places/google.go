package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"store-map/internal/logger"
)

const GoogleBaseURL = "https://maps.googleapis.com/maps/api/place"

type googleLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleResult struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Geometry         *struct {
		Location *googleLatLng `json:"location"`
		Viewport *struct {
			Northeast googleLatLng `json:"northeast"`
			Southwest googleLatLng `json:"southwest"`
		} `json:"viewport"`
	} `json:"geometry"`
}

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

// GoogleProvider：Google Places 文本搜索
type GoogleProvider struct {
	key     string
	client  *http.Client
	baseURL string
	// region 偏置，如 "in"；为空时不传
	region string
}

func NewGoogleProvider(key, region string, client *http.Client) *GoogleProvider {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &GoogleProvider{key: key, client: client, baseURL: GoogleBaseURL, region: region}
}

func (p *GoogleProvider) Name() string { return "google" }

// Heartbeat：不访问外部接口，避免消耗配额；仅检查密钥
func (p *GoogleProvider) Heartbeat(ctx context.Context) error {
	if p.key == "" {
		return errors.New("google: missing key")
	}
	return nil
}

// maxBiasRadius：textsearch 的 radius 上限（米）
const maxBiasRadius = 50000

// biasParams：视窗偏置转为 location（中心）与 radius（半对角线，米）
func biasParams(b orb.Bound) (location, radius string) {
	c := b.Center()
	r := math.Ceil(geo.Distance(c, b.Max))
	if r < 1 {
		r = 1
	}
	if r > maxBiasRadius {
		r = maxBiasRadius
	}
	return strconv.FormatFloat(c.Lat(), 'f', 6, 64) + "," + strconv.FormatFloat(c.Lon(), 'f', 6, 64),
		strconv.Itoa(int(r))
}

func (p *GoogleProvider) Search(ctx context.Context, query Query) ([]Place, error) {
	q := url.Values{}
	q.Set("query", query.Text)
	q.Set("key", p.key)
	if p.region != "" {
		q.Set("region", p.region)
	}
	if query.Bias != nil {
		loc, radius := biasParams(*query.Bias)
		q.Set("location", loc)
		q.Set("radius", radius)
	}
	u := strings.TrimRight(p.baseURL, "/") + "/textsearch/json?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google places request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google places returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var gr googleResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, err
	}
	if gr.Status != "OK" && gr.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("google places API error: %s %s", gr.Status, gr.ErrorMessage)
	}
	logger.L().Debug("google_places_resp", "query", query.Text, "status", gr.Status, "results", len(gr.Results))
	return parseGoogleResults(gr.Results), nil
}

// parseGoogleResults：无 geometry 的结果保留（FitBounds 会跳过）
func parseGoogleResults(rs []googleResult) []Place {
	out := make([]Place, 0, len(rs))
	for _, r := range rs {
		p := Place{Name: r.Name, Address: r.FormattedAddress, Provider: "google"}
		if r.Geometry != nil {
			if r.Geometry.Location != nil {
				p.Location = orb.Point{r.Geometry.Location.Lng, r.Geometry.Location.Lat}
				p.HasLocation = true
			}
			if vp := r.Geometry.Viewport; vp != nil {
				b := orb.Bound{
					Min: orb.Point{vp.Southwest.Lng, vp.Southwest.Lat},
					Max: orb.Point{vp.Northeast.Lng, vp.Northeast.Lat},
				}
				p.Viewport = &b
			}
		}
		out = append(out, p)
	}
	return out
}
