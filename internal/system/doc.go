// Package system 维护进程级的系统配置，并提供状态汇总、配置导入导出与重启信号。
package system
