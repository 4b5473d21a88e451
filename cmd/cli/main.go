package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	rootCmd   = &cobra.Command{
		Use:   "vidstream",
		Short: "Vidstream CLI - fetch video info and download streams",
		Long:  `A command-line client for the vidstream download server.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:3000", "Server URL")

	downloadCmd.Flags().String("format", "", "Format id to download (required)")
	downloadCmd.Flags().StringP("output", "o", "", "Output file path (defaults to the server-suggested name)")
	downloadCmd.MarkFlagRequired("format")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
}

var infoCmd = &cobra.Command{
	Use:   "info [url]",
	Short: "Show video metadata and available formats",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		payload := map[string]string{"url": args[0]}
		data, _ := json.Marshal(payload)

		resp, err := http.Post(serverURL+"/api/info", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		var result struct {
			Data struct {
				Title    string `json:"title"`
				Duration int    `json:"duration"`
				Author   struct {
					Name string `json:"name"`
				} `json:"author"`
				Formats struct {
					All []struct {
						FormatID string `json:"formatId"`
						Quality  string `json:"quality"`
						Type     string `json:"type"`
						Codec    string `json:"codec"`
						Size     string `json:"size"`
					} `json:"all"`
				} `json:"formats"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid response: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Title:    %s\n", result.Data.Title)
		fmt.Printf("Author:   %s\n", result.Data.Author.Name)
		fmt.Printf("Duration: %ds\n\n", result.Data.Duration)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FORMAT\tQUALITY\tTYPE\tCODEC\tSIZE")
		for _, f := range result.Data.Formats.All {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.FormatID, f.Quality, f.Type, f.Codec, f.Size)
		}
		w.Flush()
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [url]",
	Short: "Download a stream to a local file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		formatID, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		payload := map[string]string{
			"url":      args[0],
			"formatId": formatID,
			// The CLI has no event channel; any subscriber token works
			// since delivery is best-effort.
			"subscriberId": "cli",
		}
		data, _ := json.Marshal(payload)

		resp, err := http.Post(serverURL+"/api/download", "application/json", bytes.NewBuffer(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			fmt.Fprintf(os.Stderr, "Error: %s\n", string(body))
			os.Exit(1)
		}

		if output == "" {
			output = suggestedFilename(resp)
		}

		file, err := os.Create(output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()

		written, err := io.Copy(file, resp.Body)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: download truncated after %d bytes: %v\n", written, err)
			os.Exit(1)
		}

		fmt.Printf("Downloaded %d bytes to %s\n", written, output)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/stats")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err != nil {
			fmt.Println(string(body))
			return
		}
		fmt.Println(pretty.String())
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Run: func(cmd *cobra.Command, args []string) {
		resp, err := http.Get(serverURL + "/api/health")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: server unreachable: %v\n", err)
			os.Exit(1)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		fmt.Println(string(body))
	},
}

// suggestedFilename pulls the filename out of Content-Disposition,
// falling back to a generic name.
func suggestedFilename(resp *http.Response) string {
	cd := resp.Header.Get("Content-Disposition")
	const marker = `filename="`
	if i := strings.Index(cd, marker); i >= 0 {
		rest := cd[i+len(marker):]
		if j := strings.IndexByte(rest, '"'); j > 0 {
			return rest[:j]
		}
	}
	return "download.bin"
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
