package main

import (
	"log"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
)

// sampleAdaptor is a demo Adaptor used to exercise the runtime end to end,
// grounded on original_source's integ test fixture SampleAdaptor: it does
// nothing but log its start, run, stop and cleanup calls. Cancel is the
// BaseAdaptor no-op and logs nothing.
type sampleAdaptor struct {
	adaptor.BaseAdaptor
	initData         map[string]any
	pathMappingRules map[string]any
	logger           *log.Logger
}

func newSampleAdaptor(initData, pathMappingRules map[string]any, logger *log.Logger) *sampleAdaptor {
	return &sampleAdaptor{initData: initData, pathMappingRules: pathMappingRules, logger: logger}
}

func (a *sampleAdaptor) Start() error {
	a.logger.Printf("on_start: init_data=%v path_mapping_rules=%v", a.initData, a.pathMappingRules)
	return nil
}

func (a *sampleAdaptor) Run(runData map[string]any) error {
	a.logger.Printf("on_run: %v", runData)
	return nil
}

func (a *sampleAdaptor) Stop() error {
	a.logger.Print("on_stop")
	return nil
}

func (a *sampleAdaptor) Cleanup() error {
	a.logger.Print("on_cleanup")
	return nil
}
