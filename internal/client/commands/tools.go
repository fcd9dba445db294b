package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"chessworker/internal/client/api"
	"chessworker/internal/client/display"
)

var toolCommands = []*Command{
	{Name: "health", Alias: ".", Group: GroupTools, Description: "Check the API server and the worker socket", Handler: healthHandler},
	{Name: "url", Alias: "/", Group: GroupTools, Usage: "[apiUrl] [workerPort]", Description: "Show or set the server endpoints", Handler: urlHandler},
	{Name: "raw", Alias: ":", Group: GroupTools, Usage: "<method> <path> [json-body]", Description: "Send a raw API request", Handler: rawRequestHandler},
	{Name: "clear", Alias: "-", Group: GroupTools, Description: "Clear screen", Handler: clearHandler},
}

func healthHandler(s Session, args []string) error {
	resp, err := s.GetClient().Health()
	if err != nil {
		return err
	}

	fmt.Printf("%sAPI server:%s %s at %s\n", display.Cyan, display.Reset,
		resp.Status, time.Unix(resp.Time, 0).Format("2006-01-02 15:04:05"))
	if resp.Storage != "" {
		fmt.Printf("  Storage: %s\n", resp.Storage)
	}
	fmt.Printf("  Search workers: %d (%d computer games)\n", resp.Workers, resp.ComputerGames)

	worker, err := api.WorkerHealth(s.GetAPIBaseURL(), s.GetWorkerPort(), 5*time.Second)
	if err != nil {
		fmt.Printf("%sWorker socket:%s %s\n", display.Cyan, display.Reset, err)
		return nil
	}
	fmt.Printf("%sWorker socket:%s %s, %d connection(s)\n", display.Cyan, display.Reset, worker.Status, worker.Connections)
	return nil
}

func urlHandler(s Session, args []string) error {
	if len(args) == 0 {
		fmt.Printf("API: %s | worker port: %d\n", s.GetAPIBaseURL(), s.GetWorkerPort())
		return nil
	}

	url := args[0]
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	s.SetAPIBaseURL(url)
	s.GetClient().SetBaseURL(url)

	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid worker port: %s", args[1])
		}
		s.SetWorkerPort(port)
	}

	fmt.Printf("%sAPI: %s | worker port: %d%s\n", display.Cyan, s.GetAPIBaseURL(), s.GetWorkerPort(), display.Reset)
	return nil
}

func rawRequestHandler(s Session, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: raw <method> <path> [json-body]")
	}

	data, err := s.GetClient().RawRequest(strings.ToUpper(args[0]), args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, data, "", "  ") == nil {
		data = pretty.Bytes()
	}
	fmt.Println(string(data))
	return nil
}

func clearHandler(s Session, args []string) error {
	cmd := exec.Command("clear")
	cmd.Stdout = os.Stdout
	return cmd.Run()
}
