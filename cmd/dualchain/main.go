// dualchain 双链区块头存储的运维命令行：查看链头、导出变更日志、回滚与恢复。
package main

func main() {
	Execute()
}
