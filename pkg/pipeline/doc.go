// Package pipeline runs the stages of an amplicon run one after the other.
//
// A Stage is a single invocation of an external tool (or an in-process action) together with
// the rule deciding whether it succeeded. The Runner launches the tool, streams its merged
// output line by line to the run log and classifies the stage from those lines. The Pipeline
// sequences stages, records the files they exchange and stops at the first failing stage.
//
// Options implementing model.PipelineOption observe every stage: see the measure, drawer and
// report packages.
package pipeline
