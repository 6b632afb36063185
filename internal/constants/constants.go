// Package constants provides named constants used throughout the nofaults codebase.
// This centralizes the file names, script keys and literals of a UCERF3-ETAS run directory.
package constants

// Run directory layout
const (
	// ConfigFile is the ETAS configuration document in a run directory.
	ConfigFile = "config.json"

	// JobScript is the primary SLURM submission script for the simulation.
	JobScript = "etas_sim_mpj.slurm"

	// EngineArchive is the bundled simulation engine. Optional: when it is
	// missing the jar on the cluster search path is used instead.
	EngineArchive = "opensha-ucerf3-all.jar"

	// PlotInputsDir holds the plot configuration inputs, copied as a tree.
	PlotInputsDir = "config_input_plots"

	// PlotScript is the optional SLURM script that plots simulation results.
	PlotScript = "plot_results.slurm"
)

// Job script keys
const (
	// ConfEnvKey is the environment assignment naming the config path.
	ConfEnvKey = "ETAS_CONF_JSON"

	// NodesDirective requests the node count.
	NodesDirective = "#SBATCH -N"

	// TimeDirective requests the wall-clock run time.
	TimeDirective = "#SBATCH -t"

	// QueueDirective selects the partition.
	QueueDirective = "#SBATCH -p"
)

// No-faults configuration values
const (
	// NameSuffix is appended to simulationName.
	NameSuffix = ", No Faults"

	// ProbModel is the probability model of a gridded-only run.
	ProbModel = "POISSON"

	// RateScaleFactor is written verbatim as the totRateScaleFactor literal.
	RateScaleFactor = "1.0"
)

// Permissions
const (
	// ConfigFileMode is the mode of the rewritten config.json.
	ConfigFileMode = 0644
)
