package deadline

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SubmissionInfo is the repository state a submitter session needs up
// front: pool and group choices, the priority ceiling, where the user's
// Deadline home lives, and any requested repository directories.
type SubmissionInfo struct {
	Pools       []string          `json:"Pools"`
	Groups      []string          `json:"Groups"`
	MaxPriority int               `json:"MaxPriority"`
	UserHomeDir string            `json:"UserHomeDir"`
	RepoDirs    map[string]string `json:"RepoDirs"`
}

// SubmissionInfo queries the repository through deadlinecommandbg. Extra
// repoDirKeys request repository subdirectory paths, returned in RepoDirs.
func (c *Client) SubmissionInfo(repoDirKeys ...string) (SubmissionInfo, error) {
	args := []string{"-prettyJSON", "-GetSubmissionInfo", "Pools", "Groups", "MaxPriority", "UserHomeDir"}
	for _, key := range repoDirKeys {
		args = append(args, "RepoDir:"+key)
	}
	output, err := c.Run(args, RunOptions{Background: true, CheckExit: true})
	if err != nil {
		return SubmissionInfo{}, err
	}
	return parseSubmissionInfo([]byte(output))
}

// parseSubmissionInfo decodes the {ok, result} envelope -prettyJSON
// produces. On ok=false the result holds an error string instead of the
// info object.
func parseSubmissionInfo(data []byte) (SubmissionInfo, error) {
	var envelope struct {
		OK     bool            `json:"ok"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return SubmissionInfo{}, fmt.Errorf("deadline: decode submission info: %w", err)
	}
	if !envelope.OK {
		var message string
		if err := json.Unmarshal(envelope.Result, &message); err != nil {
			message = string(envelope.Result)
		}
		return SubmissionInfo{}, fmt.Errorf("deadline: submission info query failed: %s", message)
	}
	var info SubmissionInfo
	if err := json.Unmarshal(envelope.Result, &info); err != nil {
		return SubmissionInfo{}, fmt.Errorf("deadline: decode submission info result: %w", err)
	}
	info.UserHomeDir = strings.TrimSpace(info.UserHomeDir)
	return info, nil
}

// ParseJobID extracts the assigned job ID from submission output.
func ParseJobID(output string) (string, error) {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "JobID=") {
			return strings.TrimPrefix(line, "JobID="), nil
		}
	}
	return "", fmt.Errorf("deadline: no JobID line in submission output")
}
