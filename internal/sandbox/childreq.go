package sandbox

import "encoding/json"

// childRequest is the subset of Request the re-exec child bootstrap
// needs, carried across the fork/exec boundary as JSON on a donated
// fd (Go processes don't share memory across exec the way the C
// original's clone() trampoline did).
type childRequest struct {
	ExecPath   string `json:"exec_path"`
	JailPath   string `json:"jail_path"`
	InputFile  string `json:"input_file"`
	OutputFile string `json:"output_file"`
	Whitelist  string `json:"whitelist"`
	UID        uint32 `json:"uid"`
	GID        uint32 `json:"gid"`
}

func newChildRequest(req Request) childRequest {
	return childRequest{
		ExecPath:   req.ExecPath,
		JailPath:   req.JailPath,
		InputFile:  req.InputFile,
		OutputFile: req.OutputFile,
		Whitelist:  req.Whitelist,
		UID:        req.UID,
		GID:        req.GID,
	}
}

func (c childRequest) encode() ([]byte, error) {
	return json.Marshal(c)
}

func decodeChildRequest(data []byte) (childRequest, error) {
	var c childRequest
	err := json.Unmarshal(data, &c)
	return c, err
}
