package alerts

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestSmtpMailer(t *testing.T) {
	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	smtp, err := testcontainers.GenericContainer(
		context.Background(),
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "haravich/fake-smtp-server",
				ExposedPorts: []string{"1025:1025", "1080:1080"},
				WaitingFor:   wait.ForLog("smtp://0.0.0.0:1025"),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := smtp.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	}()

	mailer := NewSmtpMailer(SmtpConfig{
		Server:       "localhost",
		Port:         1025,
		EmailAddress: "alerts@trolley.app",
		Password:     "default",
	})
	err = mailer.Send(
		"alice@email.com",
		"Price drop on Full Cream Milk",
		"Down from $5.00 to $4.50 at Woolworths.",
	)
	if err != nil {
		t.Fatal(err)
	}

	res, err := resty.New().R().Get("http://127.0.0.1:1080/messages/1.plain")
	require.NoError(t, err)
	require.Contains(t, res.String(), "Down from $5.00 to $4.50 at Woolworths.")
}
