/*
Package cli provides command-line helpers used by the qola command.

Output Formatting:

Commands that print results support text and JSON output:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Results that implement TextRenderer control their own text layout.

Errors and Exit Codes:

ConfigError and CommandError carry the failing field or command. ExitCode
maps a command error to the process exit status; a CommandError may carry
its own code, such as ExitFault after a fatal recovered panic.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
