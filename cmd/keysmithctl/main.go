package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	APIKey    string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("X-Admin-API-Key", c.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("KEYSMITH_URL", "http://localhost:8080")
		apiKey  = envOr("KEYSMITH_ADMIN_KEY", "")
		out     = envOr("KEYSMITH_OUT", "text")
	)

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}

	root := &cobra.Command{
		Use:   "keysmithctl",
		Short: "CLI de operación para keysmith (vía /api/admin)",
		// los flags recién están parseados acá
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				return fmt.Errorf("falta API key (flag --admin-api-key o env KEYSMITH_ADMIN_KEY)")
			}
			cl.BaseURL, cl.APIKey, cl.OutFormat = baseURL, apiKey, out
			return nil
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del auth server (env KEYSMITH_URL)")
	root.PersistentFlags().StringVar(&apiKey, "admin-api-key", apiKey, "API key de admin (env KEYSMITH_ADMIN_KEY)")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	keysCmd := &cobra.Command{Use: "keys", Short: "Operaciones sobre claves de firma"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Listar claves publicables (active + retired no vencidas)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/api/admin/keys", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("list falló: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	rotateCmd := &cobra.Command{
		Use:   "rotate",
		Short: "Forzar una rotación (la clave anterior queda publicable hasta vencer)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/api/admin/keys/rotate", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("rotate falló: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	keysCmd.AddCommand(listCmd, rotateCmd)
	root.AddCommand(keysCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
