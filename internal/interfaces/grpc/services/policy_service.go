// Package services implements the gRPC services of PriviQ. Messages are
// google.protobuf.Struct values whose fields mirror the JSON bodies of the
// HTTP API, so no generated stubs are needed.
package services

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/turtacn/PriviQ/internal/application/analysis"
	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/internal/infrastructure/source"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "priviq.v1.PolicyAnalysis"

// Full method names.
const (
	MethodAnalyze         = "/" + ServiceName + "/Analyze"
	MethodSummarize       = "/" + ServiceName + "/Summarize"
	MethodCheckCompliance = "/" + ServiceName + "/CheckCompliance"
)

// Summary modes accepted by Summarize.
const (
	SummaryModeExtractive = "extractive"
	SummaryModeRisky      = "risky"
)

// PolicyAnalysisServer is implemented by PolicyService.
type PolicyAnalysisServer interface {
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Summarize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CheckCompliance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// PolicyAnalysisServiceDesc describes priviq.v1.PolicyAnalysis.
var PolicyAnalysisServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PolicyAnalysisServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: unaryHandler(MethodAnalyze, PolicyAnalysisServer.Analyze)},
		{MethodName: "Summarize", Handler: unaryHandler(MethodSummarize, PolicyAnalysisServer.Summarize)},
		{MethodName: "CheckCompliance", Handler: unaryHandler(MethodCheckCompliance, PolicyAnalysisServer.CheckCompliance)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "priviq/v1/policy_analysis.proto",
}

type structMethod func(PolicyAnalysisServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call structMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PolicyAnalysisServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PolicyAnalysisServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PolicyRequest is the decoded form of every request Struct.
type PolicyRequest struct {
	Text        string   `json:"text"`
	URL         string   `json:"url"`
	Object      string   `json:"object"`
	FileName    string   `json:"file_name"`
	FileContent []byte   `json:"file_content"`
	Language    string   `json:"language"`
	Sentences   int      `json:"sentences"`
	Mode        string   `json:"mode"`
	Keywords    []string `json:"keywords"`
}

func (r *PolicyRequest) input() source.Input {
	return source.Input{
		URL:         r.URL,
		Text:        r.Text,
		FileName:    r.FileName,
		FileContent: r.FileContent,
		Object:      r.Object,
	}
}

// PolicyService adapts analysis.Service to PolicyAnalysisServer.
type PolicyService struct {
	svc    analysis.Service
	logger logging.Logger
}

func NewPolicyService(svc analysis.Service, log logging.Logger) *PolicyService {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &PolicyService{svc: svc, logger: log}
}

var _ PolicyAnalysisServer = (*PolicyService)(nil)

func (s *PolicyService) Analyze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	report, err := s.svc.Analyze(ctx, &analysis.AnalyzeRequest{
		Input:     req.input(),
		Language:  req.Language,
		Sentences: req.Sentences,
	})
	if err != nil {
		return nil, err
	}
	return encodeResponse(report)
}

// Summarize returns {"summary", "mode"}. Mode defaults to extractive.
func (s *PolicyService) Summarize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = SummaryModeExtractive
	}
	if mode != SummaryModeExtractive && mode != SummaryModeRisky {
		return nil, errors.New(errors.ErrCodeValidation, "mode must be risky or extractive").WithDetail("mode=" + mode)
	}

	doc, err := s.svc.Resolve(ctx, req.input())
	if err != nil {
		return nil, err
	}
	var summary string
	if mode == SummaryModeRisky {
		summary, err = s.svc.SummarizeRisky(ctx, doc, req.Keywords)
	} else {
		summary, err = s.svc.SummarizeExtractive(ctx, doc, req.Sentences)
	}
	if err != nil {
		return nil, err
	}
	return encodeResponse(map[string]interface{}{
		"mode":     mode,
		"summary":  summary,
		"warnings": doc.Warnings,
	})
}

func (s *PolicyService) CheckCompliance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	doc, err := s.svc.Resolve(ctx, req.input())
	if err != nil {
		return nil, err
	}
	res, err := s.svc.CheckCompliance(ctx, doc)
	if err != nil {
		return nil, err
	}
	return encodeResponse(res)
}

// decodeRequest goes through JSON so field names and the base64 encoding of
// file_content match the HTTP API.
func decodeRequest(in *structpb.Struct) (*PolicyRequest, error) {
	var req PolicyRequest
	if in == nil {
		return &req, nil
	}
	raw, err := in.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid request")
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "invalid request").WithDetail(err.Error())
	}
	return &req, nil
}

func encodeResponse(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode response")
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode response")
	}
	return out, nil
}

// PolicyAnalysisClient calls priviq.v1.PolicyAnalysis.
type PolicyAnalysisClient struct {
	cc grpc.ClientConnInterface
}

func NewPolicyAnalysisClient(cc grpc.ClientConnInterface) *PolicyAnalysisClient {
	return &PolicyAnalysisClient{cc: cc}
}

func (c *PolicyAnalysisClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodAnalyze, in, opts...)
}

func (c *PolicyAnalysisClient) Summarize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSummarize, in, opts...)
}

func (c *PolicyAnalysisClient) CheckCompliance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCheckCompliance, in, opts...)
}

func (c *PolicyAnalysisClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
