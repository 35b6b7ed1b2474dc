package publisher

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/micaelgg/buutech/internal/decoder"
	"github.com/micaelgg/buutech/internal/domain"
)

type createRequest struct {
	SensorTag   string  `json:"sensor_tag"`
	Temperature float64 `json:"temperature"`
	Timestamp   string  `json:"timestamp"`
}

type createResponse struct {
	Message string              `json:"message"`
	Result  *domain.ReadingJSON `json:"result"`
	Error   string              `json:"error"`
}

// RESTClient delivers readings through POST /temperatures instead of the broker.
// It accepts the same topic/payload pairs as the MQTT client.
type RESTClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

func NewRESTClient(baseURL string, logger *zap.Logger) *RESTClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &RESTClient{httpClient: client, logger: logger}
}

var _ Client = (*RESTClient)(nil)

// Publish decodes the message the way the ingest service would and POSTs it
func (c *RESTClient) Publish(topic string, _ byte, _ bool, payload []byte) error {
	draft, err := decoder.Decode(topic, payload)
	if err != nil {
		return err
	}

	var out createResponse
	resp, err := c.httpClient.R().
		SetBody(createRequest{
			SensorTag:   draft.SensorTag,
			Temperature: draft.Temperature,
			Timestamp:   draft.Timestamp.Format(domain.TimestampLayout),
		}).
		SetResult(&out).
		SetError(&out).
		Post("/temperatures")
	if err != nil {
		return fmt.Errorf("failed to call temperatures API: %w", err)
	}
	if resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("temperatures API returned %d: %s: %s", resp.StatusCode(), out.Message, out.Error)
	}

	if out.Result != nil {
		c.logger.Debug("Reading created via API",
			zap.Int64("reading_id", out.Result.ID),
			zap.String("sensor_tag", out.Result.SensorTag),
		)
	}
	return nil
}
